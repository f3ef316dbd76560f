// Package pgxcasbin stores casbin policies in Postgres through pgx and keeps
// enforcers on every replica in sync with LISTEN/NOTIFY.
package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

const (
	DefaultTableName = "totp_casbin_rules"
	fieldCount       = 6
)

var (
	ErrRuleTooLong       = errors.New("pgxcasbin: rule has more than 6 fields")
	ErrInvalidFilterType = errors.New("pgxcasbin: filter must be map[string][][]string")
)

// DB is the subset of pgxpool.Pool the adapter needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Adapter struct {
	db       DB
	table    string
	filtered *atomic.Bool
}

var (
	_ persist.Adapter         = (*Adapter)(nil)
	_ persist.BatchAdapter    = (*Adapter)(nil)
	_ persist.FilteredAdapter = (*Adapter)(nil)
)

type Option func(*Adapter)

func WithTableName(name string) Option {
	return func(a *Adapter) { a.table = lo.SnakeCase(name) }
}

func NewAdapter(db DB, opts ...Option) *Adapter {
	a := &Adapter{db: db, table: DefaultTableName, filtered: atomic.NewBool(false)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) LoadPolicy(m model.Model) error {
	a.filtered.Store(false)

	lines, err := a.selectWhere(context.Background(), "", 0)
	if err != nil {
		return err
	}

	return loadLines(m, lines)
}

// LoadFilteredPolicy accepts map[ptype][][]fieldValues; conditions in one ptype are OR-ed.
func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	if lo.IsNil(filter) {
		return a.LoadPolicy(m)
	}

	ft, ok := filter.(map[string][][]string)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrInvalidFilterType, filter)
	}
	a.filtered.Store(true)

	var lines [][]string
	for ptype, conds := range ft {
		for _, values := range conds {
			rows, err := a.selectWhere(context.Background(), ptype, 0, values...)
			if err != nil {
				return err
			}
			lines = append(lines, rows...)
		}
	}

	lines = lo.UniqBy(lines, func(l []string) string { return strings.Join(l, ",") })

	return loadLines(m, lines)
}

func (a *Adapter) IsFiltered() bool { return a.filtered.Load() }

// SavePolicy replaces every stored rule with the model's rules in one transaction.
func (a *Adapter) SavePolicy(m model.Model) (err error) {
	ctx := context.Background()

	tx, err := a.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rbErr)
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM "+a.table); err != nil {
		return err
	}

	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				if err = a.insert(ctx, tx, ptype, rule); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit(ctx)
}

func (a *Adapter) AddPolicy(_ string, ptype string, rule []string) error {
	return a.insert(context.Background(), a.db, ptype, rule)
}

func (a *Adapter) AddPolicies(_ string, ptype string, rules [][]string) error {
	ctx := context.Background()
	for _, rule := range rules {
		if err := a.insert(ctx, a.db, ptype, rule); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) RemovePolicy(_ string, ptype string, rule []string) error {
	return a.deleteWhere(context.Background(), ptype, 0, true, rule...)
}

func (a *Adapter) RemovePolicies(_ string, ptype string, rules [][]string) error {
	ctx := context.Background()
	for _, rule := range rules {
		if err := a.deleteWhere(ctx, ptype, 0, true, rule...); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) RemoveFilteredPolicy(_ string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.deleteWhere(context.Background(), ptype, fieldIndex, false, fieldValues...)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (a *Adapter) insert(ctx context.Context, db execer, ptype string, rule []string) error {
	if len(rule) > fieldCount {
		return ErrRuleTooLong
	}

	args := make([]any, 0, fieldCount+1)
	args = append(args, ptype)
	for i := range fieldCount {
		args = append(args, field(rule, i))
	}

	_, err := db.Exec(ctx, "INSERT INTO "+a.table+" (ptype, v0, v1, v2, v3, v4, v5) "+
		"VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT DO NOTHING", args...)

	return err
}

// where builds "ptype = $1 AND vN = $k" conditions. exact also pins the unused
// trailing fields to '' so a rule only matches itself.
func where(ptype string, start int, exact bool, values []string) (string, []any) {
	var conds []string
	var args []any

	if ptype != "" {
		args = append(args, ptype)
		conds = append(conds, "ptype = $1")
	}

	for i := start; i < fieldCount; i++ {
		idx := i - start
		v := field(values, idx)
		if !exact && (idx >= len(values) || v == "") {
			continue
		}
		args = append(args, v)
		conds = append(conds, "v"+strconv.Itoa(i)+" = $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (a *Adapter) deleteWhere(ctx context.Context, ptype string, start int, exact bool, values ...string) error {
	if start+len(values) > fieldCount {
		return ErrRuleTooLong
	}

	clause, args := where(ptype, start, exact, values)
	_, err := a.db.Exec(ctx, "DELETE FROM "+a.table+clause, args...)

	return err
}

func (a *Adapter) selectWhere(ctx context.Context, ptype string, start int, values ...string) ([][]string, error) {
	if start+len(values) > fieldCount {
		return nil, ErrRuleTooLong
	}

	clause, args := where(ptype, start, false, values)
	rows, err := a.db.Query(ctx, "SELECT ptype, v0, v1, v2, v3, v4, v5 FROM "+a.table+clause+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines [][]string
	for rows.Next() {
		line := make([]string, fieldCount+1)
		dest := lo.Map(line, func(_ string, i int) any { return &line[i] })
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		lines = append(lines, trimTrailingEmpty(line))
	}

	return lines, rows.Err()
}

func trimTrailingEmpty(line []string) []string {
	end := len(line)
	for end > 1 && line[end-1] == "" {
		end--
	}
	return line[:end]
}

func loadLines(m model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}

func field(rule []string, i int) string {
	if i < len(rule) {
		return rule[i]
	}
	return ""
}
