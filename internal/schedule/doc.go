// Package schedule decides when recurring tasks are due.
//
// Every comparison is made between absolute instants. A task's local
// (weekday, time-of-day) is projected onto concrete dates in the owner's
// zone and only then compared with the UTC due window, so windows that
// straddle midnight in either UTC or local time need no special casing.
package schedule
