package liveplan

// cachedPlanQueryTemplate returns the last actual plan of the statements that spent
// the most elapsed time since they were cached. Needs LAST_QUERY_PLAN_STATS or
// trace flag 2451 to be enabled on the server.
const cachedPlanQueryTemplate = `DECLARE @TopN INT = %d; -- Number of plans to retrieve

SELECT TOP (@TopN)
	CONVERT(VARCHAR(130), qs.plan_handle, 1) AS plan_handle,
	CAST(qps.query_plan AS NVARCHAR(MAX)) AS query_plan
FROM
	sys.dm_exec_query_stats AS qs
CROSS APPLY
	sys.dm_exec_query_plan_stats(qs.plan_handle) AS qps
WHERE
	qps.query_plan IS NOT NULL
ORDER BY
	qs.total_elapsed_time DESC;`

const (
	planColumn       = "query_plan"
	planHandleColumn = "plan_handle"
)
