package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Lookup is one row of lookup history.
type Lookup struct {
	ID               int64     `json:"id"`
	Signature        string    `json:"signature"`
	Network          string    `json:"network"`
	Status           string    `json:"status"`
	Slot             int64     `json:"slot"`
	Fee              int64     `json:"fee"`
	Signer           string    `json:"signer"`
	InstructionCount int       `json:"instruction_count"`
	LookedUpAt       time.Time `json:"looked_up_at"`
}

// RecordLookupParams contains the parameters for recording a lookup.
type RecordLookupParams struct {
	Signature        string
	Network          string
	Status           string
	Slot             uint64
	Fee              uint64
	Signer           string
	InstructionCount int
}

// ListLookupsParams contains pagination and filter parameters.
// An empty Network lists every network.
type ListLookupsParams struct {
	Network string
	Limit   int32
	Offset  int32
}

// RecordLookup appends a successful lookup to the history.
func (s *Store) RecordLookup(ctx context.Context, params RecordLookupParams) (*Lookup, error) {
	start := time.Now()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO lookups (signature, network, status, slot, fee, signer, instruction_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, signature, network, status, slot, fee, signer, instruction_count, looked_up_at
	`,
		params.Signature,
		params.Network,
		params.Status,
		int64(params.Slot),
		int64(params.Fee),
		params.Signer,
		params.InstructionCount,
	)
	l, err := scanLookup(row)
	s.observe("insert", "lookups", start, err)

	if err != nil {
		return nil, fmt.Errorf("failed to record lookup: %w", err)
	}
	return l, nil
}

// ListLookups returns lookup history, most recent first.
func (s *Store) ListLookups(ctx context.Context, params ListLookupsParams) ([]*Lookup, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, signature, network, status, slot, fee, signer, instruction_count, looked_up_at
		FROM lookups
		WHERE ($1 = '' OR network = $1)
		ORDER BY looked_up_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, params.Network, params.Limit, params.Offset)
	if err != nil {
		s.observe("list", "lookups", start, err)
		return nil, fmt.Errorf("failed to list lookups: %w", err)
	}
	defer rows.Close()

	lookups := make([]*Lookup, 0)
	for rows.Next() {
		l, err := scanLookup(rows)
		if err != nil {
			s.observe("list", "lookups", start, err)
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		lookups = append(lookups, l)
	}
	err = rows.Err()
	s.observe("list", "lookups", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list lookups: %w", err)
	}
	return lookups, nil
}

func scanLookup(row pgx.Row) (*Lookup, error) {
	var l Lookup
	err := row.Scan(
		&l.ID,
		&l.Signature,
		&l.Network,
		&l.Status,
		&l.Slot,
		&l.Fee,
		&l.Signer,
		&l.InstructionCount,
		&l.LookedUpAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
