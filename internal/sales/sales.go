package sales

import "salesdash/internal/core"

// Result is the full aggregation of one record set.
type Result struct {
	Snapshot Snapshot `json:"snapshot"`
	Series   Series   `json:"series"`
	Records  int      `json:"records"`
}

// Build filters records and runs both builders. The series uses the contract
// unit supply of the snapshot as its denominator.
func Build(records []core.UnitSaleRecord, filter Filter) Result {
	selected := filter.Apply(records)
	snap := BuildSnapshot(selected)
	return Result{
		Snapshot: snap,
		Series:   BuildSeries(selected, snap.SupplyByType()),
		Records:  len(selected),
	}
}

// Empty reports whether no records were selected.
func (r Result) Empty() bool { return r.Records == 0 }
