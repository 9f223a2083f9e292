// Package domain contains the core business entities of the task tracker:
// tasks, their owners, and the urgency classification that ranks how soon a
// task is due. It is independent of any storage or delivery mechanism.
package domain
