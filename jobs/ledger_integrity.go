package jobs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
	"github.com/voyager-erp/voyager-erp/internal/observability"
	"github.com/voyager-erp/voyager-erp/internal/sequence"
)

// IntegrityFinding describes one inconsistency surfaced by the scan.
type IntegrityFinding struct {
	Kind    string
	Subject string
	Detail  string
}

// LedgerIntegrityJob cross-checks the ledger invariants that the posting
// engine enforces at write time: every active voucher balances within
// tolerance, and no issued voucher number is ahead of its counter. Findings
// indicate either manual data surgery or a counter overwrite gone wrong.
type LedgerIntegrityJob struct {
	pool    *pgxpool.Pool
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewLedgerIntegrityJob(pool *pgxpool.Pool, metrics *observability.Metrics, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{pool: pool, metrics: metrics, logger: logger}
}

// Run executes the scan and reports findings via logs and metrics.
func (j *LedgerIntegrityJob) Run(ctx context.Context) ([]IntegrityFinding, error) {
	var findings []IntegrityFinding

	unbalanced, err := j.scanUnbalanced(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, unbalanced...)

	drift, err := j.scanCounterDrift(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, drift...)

	j.metrics.SetIntegrityFindings(len(findings))
	for _, f := range findings {
		j.logger.Warn("ledger integrity finding",
			slog.String("kind", f.Kind),
			slog.String("subject", f.Subject),
			slog.String("detail", f.Detail))
	}
	if len(findings) == 0 {
		j.logger.Info("ledger integrity scan clean")
	}
	return findings, nil
}

func (j *LedgerIntegrityJob) scanUnbalanced(ctx context.Context) ([]IntegrityFinding, error) {
	rows, err := j.pool.Query(ctx, `
SELECT v.invoice_number,
       COALESCE(SUM(CASE WHEN l.side='DEBIT' THEN l.amount ELSE 0 END), 0) AS debit,
       COALESCE(SUM(CASE WHEN l.side='CREDIT' THEN l.amount ELSE 0 END), 0) AS credit
FROM journal_vouchers v
JOIN journal_voucher_lines l ON l.voucher_id = v.id
WHERE NOT v.is_deleted
GROUP BY v.id, v.invoice_number
HAVING ABS(SUM(CASE WHEN l.side='DEBIT' THEN l.amount ELSE -l.amount END)) > $1`,
		ledgershared.BalanceTolerance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var findings []IntegrityFinding
	for rows.Next() {
		var number string
		var debit, credit float64
		if err := rows.Scan(&number, &debit, &credit); err != nil {
			return nil, err
		}
		findings = append(findings, IntegrityFinding{
			Kind:    "unbalanced_voucher",
			Subject: number,
			Detail:  (&ledgershared.UnbalancedEntryError{Debit: debit, Credit: credit}).Error(),
		})
	}
	return findings, rows.Err()
}

// scanCounterDrift compares each counter against the highest numeric suffix
// among issued voucher numbers with that counter's prefix. A counter behind
// its vouchers would hand out duplicates on the next allocation.
func (j *LedgerIntegrityJob) scanCounterDrift(ctx context.Context) ([]IntegrityFinding, error) {
	rows, err := j.pool.Query(ctx, `SELECT type_key, prefix, counter_value FROM sequence_counters`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	type counterRow struct {
		typeKey string
		prefix  string
		value   int64
	}
	var counters []counterRow
	for rows.Next() {
		var c counterRow
		if err := rows.Scan(&c.typeKey, &c.prefix, &c.value); err != nil {
			return nil, err
		}
		counters = append(counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var findings []IntegrityFinding
	for _, c := range counters {
		var maxIssued int64
		err := j.pool.QueryRow(ctx, `
SELECT COALESCE(MAX(CAST(SUBSTRING(invoice_number FROM '[0-9]+$') AS BIGINT)), 0)
FROM journal_vouchers WHERE invoice_number LIKE $1`, likePrefixPattern(c.prefix)).Scan(&maxIssued)
		if err != nil {
			return nil, err
		}
		if maxIssued > c.value {
			findings = append(findings, IntegrityFinding{
				Kind:    "counter_behind",
				Subject: c.typeKey,
				Detail:  sequence.Format(c.prefix, sequence.DefaultPadWidth, maxIssued) + " issued beyond counter",
			})
		}
	}
	return findings, nil
}

// likePrefixPattern builds the LIKE pattern for numbers issued under a
// prefix. LIKE metacharacters in the prefix are escaped so a prefix such as
// COMP_X matches only its own vouchers.
func likePrefixPattern(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "-%"
}

// NewLedgerIntegrityHandler adapts the job to asynq.
func NewLedgerIntegrityHandler(job *LedgerIntegrityJob) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		_, err := job.Run(ctx)
		return err
	}
}
