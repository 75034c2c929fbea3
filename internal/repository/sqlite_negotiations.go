package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/reloved/marketplace/internal/domain"
)

const negotiationColumns = `negotiation_id, item_id, seller_id, buyer_id, status, current_offer, final_price, round_number, max_rounds, created_at, updated_at, completed_at, expires_at`

func scanNegotiation(row interface{ Scan(...interface{}) error }) (*domain.Negotiation, error) {
	var neg domain.Negotiation
	var currentOffer, finalPrice sql.NullFloat64
	var completedAt, expiresAt sql.NullTime
	err := row.Scan(&neg.NegotiationID, &neg.ItemID, &neg.SellerID, &neg.BuyerID, &neg.Status,
		&currentOffer, &finalPrice, &neg.RoundNumber, &neg.MaxRounds,
		&neg.CreatedAt, &neg.UpdatedAt, &completedAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	if currentOffer.Valid {
		neg.CurrentOffer = currentOffer.Float64
	}
	if finalPrice.Valid {
		neg.FinalPrice = finalPrice.Float64
	}
	if completedAt.Valid {
		neg.CompletedAt = &completedAt.Time
	}
	if expiresAt.Valid {
		neg.ExpiresAt = &expiresAt.Time
	}
	return &neg, nil
}

// CreateNegotiation creates a negotiation together with its opening offer in
// one transaction.
func (s *SQLiteStore) CreateNegotiation(ctx context.Context, neg *domain.Negotiation, first *domain.Offer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var expiresAt sql.NullTime
	if neg.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *neg.ExpiresAt, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO negotiations (negotiation_id, item_id, seller_id, buyer_id, status, current_offer, round_number, max_rounds, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		neg.NegotiationID, neg.ItemID, neg.SellerID, neg.BuyerID, neg.Status,
		neg.CurrentOffer, neg.RoundNumber, neg.MaxRounds, neg.CreatedAt, neg.UpdatedAt, expiresAt)
	if err != nil {
		return err
	}

	if first != nil {
		if err := insertOffer(ctx, tx, first); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertOffer(ctx context.Context, tx *sql.Tx, offer *domain.Offer) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO offers (offer_id, negotiation_id, offer_type, price, message, round_number, is_counter_offer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		offer.OfferID, offer.NegotiationID, offer.OfferType, offer.Price,
		nullString(offer.Message), offer.RoundNumber, offer.IsCounterOffer, offer.CreatedAt)
	return err
}

// GetNegotiation retrieves a negotiation by ID.
func (s *SQLiteStore) GetNegotiation(ctx context.Context, negotiationID string) (*domain.Negotiation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations WHERE negotiation_id = ?`, negotiationID)
	neg, err := scanNegotiation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return neg, nil
}

// GetActiveNegotiation retrieves the active negotiation for an (item, buyer)
// pair, if any.
func (s *SQLiteStore) GetActiveNegotiation(ctx context.Context, itemID, buyerID string) (*domain.Negotiation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations WHERE item_id = ? AND buyer_id = ? AND status = 'active'`,
		itemID, buyerID)
	neg, err := scanNegotiation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return neg, nil
}

// ListNegotiationsByItem lists all negotiations on an item.
func (s *SQLiteStore) ListNegotiationsByItem(ctx context.Context, itemID string) ([]domain.Negotiation, error) {
	return s.listNegotiations(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations WHERE item_id = ? ORDER BY created_at ASC`, itemID)
}

// ListNegotiationsByUser lists negotiations where the user is buyer or seller.
func (s *SQLiteStore) ListNegotiationsByUser(ctx context.Context, userID string) ([]domain.Negotiation, error) {
	return s.listNegotiations(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations WHERE buyer_id = ? OR seller_id = ? ORDER BY created_at DESC`,
		userID, userID)
}

func (s *SQLiteStore) listNegotiations(ctx context.Context, query string, args ...interface{}) ([]domain.Negotiation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var negs []domain.Negotiation
	for rows.Next() {
		neg, err := scanNegotiation(rows)
		if err != nil {
			return nil, err
		}
		negs = append(negs, *neg)
	}
	return negs, rows.Err()
}

// AppendOffer stores the offer row and advances the negotiation in one
// transaction. The negotiation update is guarded on status=active and the
// expected prior round so a concurrent writer loses cleanly.
func (s *SQLiteStore) AppendOffer(ctx context.Context, offer *domain.Offer, priorRound int, expiresAt time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE negotiations SET current_offer = ?, round_number = ?, expires_at = ?, updated_at = ?
		 WHERE negotiation_id = ? AND status = 'active' AND round_number = ?`,
		offer.Price, offer.RoundNumber, expiresAt, time.Now(), offer.NegotiationID, priorRound)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if err := insertOffer(ctx, tx, offer); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ListOffers lists a negotiation's offers, oldest first.
func (s *SQLiteStore) ListOffers(ctx context.Context, negotiationID string) ([]domain.Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT offer_id, negotiation_id, offer_type, price, message, round_number, is_counter_offer, created_at
		 FROM offers WHERE negotiation_id = ? ORDER BY round_number ASC, created_at ASC`, negotiationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}

// LatestOffer returns the highest-round offer of a negotiation, or nil.
func (s *SQLiteStore) LatestOffer(ctx context.Context, negotiationID string) (*domain.Offer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT offer_id, negotiation_id, offer_type, price, message, round_number, is_counter_offer, created_at
		 FROM offers WHERE negotiation_id = ? ORDER BY round_number DESC, created_at DESC LIMIT 1`, negotiationID)
	offer, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func scanOffer(row interface{ Scan(...interface{}) error }) (*domain.Offer, error) {
	var offer domain.Offer
	var message sql.NullString
	err := row.Scan(&offer.OfferID, &offer.NegotiationID, &offer.OfferType, &offer.Price,
		&message, &offer.RoundNumber, &offer.IsCounterOffer, &offer.CreatedAt)
	if err != nil {
		return nil, err
	}
	offer.Message = message.String
	return &offer, nil
}

// CompleteNegotiation performs the accept sequence atomically: the winning
// negotiation goes to completed, the item to sold, and every other active
// negotiation on the same item to cancelled. Two concurrent accepts on
// different negotiations for the same item cannot both succeed because the
// loser's row is cancelled before its guard runs.
func (s *SQLiteStore) CompleteNegotiation(ctx context.Context, negotiationID string, finalPrice float64) (bool, []string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx,
		`UPDATE negotiations SET status = 'completed', final_price = ?, completed_at = ?, updated_at = ?
		 WHERE negotiation_id = ? AND status = 'active'`,
		finalPrice, now, now, negotiationID)
	if err != nil {
		return false, nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil, err
	}
	if affected == 0 {
		return false, nil, nil
	}

	var itemID string
	if err := tx.QueryRowContext(ctx,
		`SELECT item_id FROM negotiations WHERE negotiation_id = ?`, negotiationID).Scan(&itemID); err != nil {
		return false, nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT negotiation_id FROM negotiations WHERE item_id = ? AND status = 'active' AND negotiation_id != ?`,
		itemID, negotiationID)
	if err != nil {
		return false, nil, err
	}
	var siblings []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return false, nil, err
		}
		siblings = append(siblings, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return false, nil, err
	}
	rows.Close()

	if len(siblings) > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE negotiations SET status = 'cancelled', updated_at = ? WHERE item_id = ? AND status = 'active' AND negotiation_id != ?`,
			now, itemID, negotiationID); err != nil {
			return false, nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET status = 'sold', sold_at = ?, updated_at = ? WHERE item_id = ?`,
		now, now, itemID); err != nil {
		return false, nil, err
	}

	return true, siblings, tx.Commit()
}

// CancelNegotiation moves an active negotiation to cancelled. The status
// guard doubles as decline idempotency: a second decline finds no active row
// and neither updates nor appends.
func (s *SQLiteStore) CancelNegotiation(ctx context.Context, negotiationID string, decline *domain.Offer) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE negotiations SET status = 'cancelled', updated_at = ? WHERE negotiation_id = ? AND status = 'active'`,
		time.Now(), negotiationID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if decline != nil {
		if err := insertOffer(ctx, tx, decline); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

// MarkPickedUp moves a completed negotiation to picked_up.
func (s *SQLiteStore) MarkPickedUp(ctx context.Context, negotiationID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE negotiations SET status = 'picked_up', updated_at = ? WHERE negotiation_id = ? AND status = 'completed'`,
		time.Now(), negotiationID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
