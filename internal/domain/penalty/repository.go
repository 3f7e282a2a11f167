package penalty

import "context"

type Repository interface {
	// Claim inserts the marker. claimed is false when it already existed.
	Claim(ctx context.Context, p Penalty) (claimed bool, err error)
	// Release removes a marker whose life deduction could not be written.
	Release(ctx context.Context, leagueID, memberID string, week int) error
	ListByMember(ctx context.Context, leagueID, memberID string) ([]Penalty, error)
}
