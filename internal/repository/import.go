package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/thraizz/commander-table/internal/catalog"
	"go.uber.org/zap"
)

// ImportResult counts what an import wrote.
type ImportResult struct {
	Cards int
	Decks int
}

// ImportCatalog loads cat into the cards, decks and deck_cards tables in one
// transaction. Card ids are reserved from the cards sequence first so rows can
// be streamed with COPY. When replace is set the catalog tables are emptied
// first; sessions referencing old decks block that with a foreign key error.
func (db *DB) ImportCatalog(ctx context.Context, cat *catalog.Catalog, replace bool) (ImportResult, error) {
	var result ImportResult
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if replace {
			if _, err := tx.Exec(ctx, `TRUNCATE deck_cards, decks, cards RESTART IDENTITY`); err != nil {
				return fmt.Errorf("failed to clear catalog: %w", err)
			}
		}

		ids, err := reserveCardIDs(ctx, tx, len(cat.Records))
		if err != nil {
			return err
		}
		rows := make([][]any, len(cat.Records))
		for i, rec := range cat.Records {
			c := rec.Card
			rows[i] = []any{ids[i], c.Name, c.ManaCost, c.TypeLine, c.OracleText, c.ImageURL, c.IsToken}
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"cards"},
			[]string{"id", "name", "mana_cost", "type_line", "oracle_text", "image_url", "is_token"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to copy cards: %w", err)
		}
		result.Cards = int(n)

		decks, err := cat.Resolve(ids)
		if err != nil {
			return err
		}
		for _, deck := range decks {
			commanders := deck.CommanderIDs
			if commanders == nil {
				commanders = []int64{}
			}
			var deckID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO decks (name, commander_ids) VALUES ($1, $2) RETURNING id`,
				deck.Name, commanders,
			).Scan(&deckID)
			if err != nil {
				return fmt.Errorf("failed to insert deck %q: %w", deck.Name, err)
			}
			lines := make([][]any, len(deck.Cards))
			for i, dc := range deck.Cards {
				lines[i] = []any{deckID, int32(i), dc.CardID, int32(dc.Quantity)}
			}
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"deck_cards"},
				[]string{"deck_id", "position", "card_id", "quantity"},
				pgx.CopyFromRows(lines),
			); err != nil {
				return fmt.Errorf("failed to copy cards of deck %q: %w", deck.Name, err)
			}
			result.Decks++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	db.logger.Info("catalog imported",
		zap.Int("cards", result.Cards),
		zap.Int("decks", result.Decks),
		zap.Bool("replace", replace),
	)
	return result, nil
}

func reserveCardIDs(ctx context.Context, tx pgx.Tx, n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}
	rows, err := tx.Query(ctx,
		`SELECT nextval(pg_get_serial_sequence('cards', 'id')) FROM generate_series(1, $1)`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve card ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to reserve card ids: %w", err)
	}
	return ids, nil
}

// ImportCatalog adds cat to the in-memory catalog.
func (s *MemoryStore) ImportCatalog(cat *catalog.Catalog) (ImportResult, error) {
	ids := make([]int64, len(cat.Records))
	for i, rec := range cat.Records {
		ids[i] = s.AddCard(rec.Card)
	}
	decks, err := cat.Resolve(ids)
	if err != nil {
		return ImportResult{}, err
	}
	for _, deck := range decks {
		s.AddDeck(deck)
	}
	s.logger.Info("catalog imported", zap.Int("cards", len(ids)), zap.Int("decks", len(decks)))
	return ImportResult{Cards: len(ids), Decks: len(decks)}, nil
}
