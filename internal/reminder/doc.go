// Package reminder implements the overdue-task reminder job: selecting
// pending tasks whose due time has passed, ranking them by urgency, and
// placing one outbound call per task through a Gateway. A failed call never
// aborts the rest of the run, and at most one run is active at a time.
package reminder
