package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, seq, type, product_id, warehouse_id, quantity, negative, reference, notes, status,
	COALESCE(counterpart_id, ''), created_by, created_at, updated_at, COALESCE(commit_seq, 0), committed_at`

// LedgerRepo libro de stock sobre PostgreSQL (usable con pool o tx). Solo inserta y cambia estado.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta el lote en un savepoint; seq sale de ledger_seq.
func (r *LedgerRepo) Append(ctx context.Context, entries ...*entity.Transaction) error {
	return inTx(ctx, r.q, func(tx pgx.Tx) error {
		for _, e := range entries {
			var seq int64
			if err := tx.QueryRow(ctx, `SELECT nextval('ledger_seq')`).Scan(&seq); err != nil {
				return fmt.Errorf("next ledger seq: %w", err)
			}
			var commitSeq *int64
			if e.Committed() {
				commitSeq = &seq
			}
			var counterpart *string
			if e.CounterpartID != "" {
				counterpart = &e.CounterpartID
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO ledger_entries (id, seq, type, product_id, warehouse_id, quantity, negative, reference, notes,
					status, counterpart_id, created_by, created_at, updated_at, commit_seq, committed_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
				e.ID, seq, string(e.Type), e.ProductID, e.WarehouseID, e.Quantity, e.Negative, e.Reference, e.Notes,
				string(e.Status), counterpart, e.CreatedBy, e.Timestamp, e.UpdatedAt, commitSeq, e.CommittedAt,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return domain.ErrDuplicate
				}
				return fmt.Errorf("insert ledger entry: %w", err)
			}
			e.Seq = seq
			if commitSeq != nil {
				e.CommitSeq = seq
			}
		}
		return nil
	})
}

// GetByID obtiene un asiento por ID; nil, nil si no existe.
func (r *LedgerRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	tx, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return tx, nil
}

// List asientos más recientes primero.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.Transaction, error) {
	where, args := ledgerWhere(f)
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries` + where + ` ORDER BY seq DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.queryTransactions(ctx, query, args...)
}

// Count cuenta los asientos del filtro.
func (r *LedgerRepo) Count(ctx context.Context, f repository.LedgerFilter) (int, error) {
	where, args := ledgerWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM ledger_entries`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}

// ListByPair asientos de un par en orden de seq.
func (r *LedgerRepo) ListByPair(ctx context.Context, productID, warehouseID string) ([]*entity.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE product_id = $1 AND warehouse_id = $2 ORDER BY seq`, productID, warehouseID)
}

// ListAll todo el libro en orden de seq.
func (r *LedgerRepo) ListAll(ctx context.Context) ([]*entity.Transaction, error) {
	return r.queryTransactions(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries ORDER BY seq`)
}

// UpdateStatus actualiza el estado solo si sigue en change.From y registra el historial.
func (r *LedgerRepo) UpdateStatus(ctx context.Context, change *entity.StatusChange) error {
	return inTx(ctx, r.q, func(tx pgx.Tx) error {
		var seq int64
		if err := tx.QueryRow(ctx, `SELECT nextval('ledger_seq')`).Scan(&seq); err != nil {
			return fmt.Errorf("next ledger seq: %w", err)
		}
		cmd, err := tx.Exec(ctx, `
			UPDATE ledger_entries SET
				status = $2,
				updated_at = $3,
				commit_seq = CASE WHEN $4 THEN $5 ELSE commit_seq END,
				committed_at = CASE WHEN $4 THEN $3 ELSE committed_at END
			WHERE id = $1 AND status = $6`,
			change.TransactionID, string(change.To), change.ChangedAt, change.Commits, seq, string(change.From),
		)
		if err != nil {
			return fmt.Errorf("update ledger status: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			cur, err := NewLedgerRepository(tx).GetByID(ctx, change.TransactionID)
			if err != nil {
				return err
			}
			if cur == nil {
				return domain.NotFound("transaction_id", change.TransactionID)
			}
			return &domain.InvalidTransitionError{
				TransactionID: cur.ID, Type: string(cur.Type), From: string(cur.Status), To: string(change.To),
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO status_changes (seq, transaction_id, from_status, to_status, commits, changed_by, changed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			seq, change.TransactionID, string(change.From), string(change.To), change.Commits, change.ChangedBy, change.ChangedAt,
		)
		if err != nil {
			return fmt.Errorf("insert status change: %w", err)
		}
		change.Seq = seq
		return nil
	})
}

// History cambios de estado del asiento en orden.
func (r *LedgerRepo) History(ctx context.Context, transactionID string) ([]entity.StatusChange, error) {
	rows, err := r.q.Query(ctx, `
		SELECT seq, transaction_id, from_status, to_status, commits, changed_by, changed_at
		FROM status_changes WHERE transaction_id = $1 ORDER BY seq`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()
	var list []entity.StatusChange
	for rows.Next() {
		var c entity.StatusChange
		var from, to string
		if err := rows.Scan(&c.Seq, &c.TransactionID, &from, &to, &c.Commits, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		c.From, c.To = entity.Status(from), entity.Status(to)
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *LedgerRepo) queryTransactions(ctx context.Context, query string, args ...any) ([]*entity.Transaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, tx)
	}
	return list, rows.Err()
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var (
		t           entity.Transaction
		typ, status string
		committedAt *time.Time
	)
	err := row.Scan(&t.ID, &t.Seq, &typ, &t.ProductID, &t.WarehouseID, &t.Quantity, &t.Negative, &t.Reference,
		&t.Notes, &status, &t.CounterpartID, &t.CreatedBy, &t.Timestamp, &t.UpdatedAt, &t.CommitSeq, &committedAt)
	if err != nil {
		return nil, err
	}
	t.Type, t.Status, t.CommittedAt = entity.TransactionType(typ), entity.Status(status), committedAt
	return &t, nil
}

// ledgerWhere arma el WHERE parametrizado del filtro (sin Limit/Offset).
func ledgerWhere(f repository.LedgerFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
