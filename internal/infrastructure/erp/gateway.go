// Package erp reads open invoices and credit notes from the ERP company
// database and normalizes them into documents.
package erp

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/paysync/internal/domain/document"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway is the read-only view of ERP documents used by sync and lookup
type Gateway struct {
	session *Session
	opts    document.NormalizeOptions
	loc     *time.Location
	logger  *zap.Logger
}

// NewGateway creates a gateway. loc is the ERP wall-clock zone used for
// update-time filtering.
func NewGateway(session *Session, opts document.NormalizeOptions, loc *time.Location, logger *zap.Logger) *Gateway {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{session: session, opts: opts, loc: loc, logger: logger}
}

// FetchOpenDocuments returns the open invoices followed by the open credit
// notes of the given counterparties. With since set, only rows updated after
// it (or with no update date) are returned.
func (g *Gateway) FetchOpenDocuments(ctx context.Context, codes []string, since *time.Time) ([]document.Document, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	db, err := g.session.DB(ctx)
	if err != nil {
		return nil, err
	}

	var docs []document.Document
	for _, src := range documentSources {
		batch, err := g.query(ctx, db, src, openDocumentsQuery(src.table, codes, since, g.loc))
		if err != nil {
			return nil, err
		}
		docs = append(docs, batch...)
	}

	g.logger.Debug("Fetched open documents",
		zap.Int("counterparties", len(codes)),
		zap.Int("documents", len(docs)),
		zap.Timep("since", since),
	)
	return docs, nil
}

// FetchByInternalID looks the id up among invoices, then credit notes.
// It returns (nil, nil) when neither table has it.
func (g *Gateway) FetchByInternalID(ctx context.Context, internalID string) (*document.Document, error) {
	db, err := g.session.DB(ctx)
	if err != nil {
		return nil, err
	}
	for _, src := range documentSources {
		docs, err := g.query(ctx, db, src, byInternalIDQuery(src.table, internalID))
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			return &docs[0], nil
		}
	}
	return nil, nil
}

// Close releases the ERP session
func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) query(ctx context.Context, db *sql.DB, src documentSource, query string) ([]document.Document, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", src.table, err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", src.table, err)
		}
		doc, err := document.Normalize(rec, src.docType, g.opts)
		if err != nil {
			g.logger.Warn("Skipping ERP row",
				zap.String("table", src.table),
				zap.String("internal_id", rec.EntryID),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s rows: %w", src.table, err)
	}
	return docs, nil
}

func scanRecord(rows *sql.Rows) (document.RawRecord, error) {
	var (
		entryID, docNum, cardCode, cardName sql.NullString
		comments, updateTime                sql.NullString
		docDate, updateDate                 sql.NullTime
		docTotal, vatSum                    decimal.NullDecimal
	)
	if err := rows.Scan(&entryID, &docNum, &docDate, &cardCode, &cardName,
		&docTotal, &vatSum, &comments, &updateDate, &updateTime); err != nil {
		return document.RawRecord{}, err
	}

	rec := document.RawRecord{
		EntryID:    entryID.String,
		DocNum:     docNum.String,
		CardCode:   cardCode.String,
		CardName:   cardName.String,
		Comments:   comments.String,
		UpdateTime: updateTime.String,
	}
	if docDate.Valid {
		rec.DocDate = &docDate.Time
	}
	if updateDate.Valid {
		rec.UpdateDate = &updateDate.Time
	}
	if docTotal.Valid {
		rec.DocTotal = &docTotal.Decimal
	}
	if vatSum.Valid {
		rec.VatSum = &vatSum.Decimal
	}
	return rec, nil
}
