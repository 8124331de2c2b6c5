package sheets

import (
	"context"

	"salesdash/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordSource returns the unit sale records selected by a query.
	RecordSource interface {
		FetchRecords(ctx context.Context, q core.Query) ([]core.UnitSaleRecord, error)
	}

	// ProjectLister returns the distinct project names in first-seen order.
	ProjectLister interface {
		ListProjects(ctx context.Context) ([]string, error)
	}

	// PairRegistry stores main/option project code pairs.
	PairRegistry interface {
		// ListPairs returns pairs newest first.
		ListPairs(ctx context.Context) ([]core.ProjectPair, error)
		AppendPair(ctx context.Context, p core.ProjectPair) (rowRef string, err error)
	}

	// ProjectWriter replaces the stored records of one project.
	ProjectWriter interface {
		ReplaceProject(ctx context.Context, project string, records []core.UnitSaleRecord) error
	}
)
