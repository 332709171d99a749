/*
Package cost implements the Cost Pipeline: parsing the LLM's
newline-delimited JSON event log, extracting usage/cost attributes from
result events, recording CostEntry records, tailing per-worker logs with
offset tracking, and computing per-goal budget spend/remaining.

Grounded on the teacher's ticker-driven collection shape
(pkg/metrics.Collector) for the tailer loop. The decode-tolerant-of-
partial-lines parsing has no corpus precedent and is plain stdlib code:
a malformed or truncated trailing line is dropped silently rather than
aborting the whole parse.
*/
package cost
