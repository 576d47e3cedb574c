// Package navigator drives a feed's archive page: the bootstrap-datepicker
// calendar that selects a day and the DataTables list of that day's entries.
//
// Every click is followed by a bounded wait for a named page condition
// (see conditions.go), since both widgets re-render asynchronously. A wait
// that runs out is a navigation error, never a silent empty result.
package navigator
