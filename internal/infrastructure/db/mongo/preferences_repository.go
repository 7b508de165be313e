package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velia/accounts-api/internal/core/domain"
	"github.com/velia/accounts-api/internal/core/ports"
)

const preferencesCollection = "preferences"

// PreferencesRepository persists per-account settings, one document per
// account keyed by account id. Documents are created lazily by Upsert.
type PreferencesRepository struct {
	coll *mongo.Collection
}

func NewPreferencesRepository(db *mongo.Database) *PreferencesRepository {
	return &PreferencesRepository{coll: db.Collection(preferencesCollection)}
}

type mongoPreferences struct {
	AccountID          string `bson:"_id"`
	EmailNotifications bool   `bson:"email_notifications"`
	Newsletter         bool   `bson:"newsletter"`
	DarkMode           bool   `bson:"dark_mode"`
	Language           string `bson:"language"`
}

func (d *mongoPreferences) toDomain() *domain.Preferences {
	return &domain.Preferences{
		AccountID:          d.AccountID,
		EmailNotifications: d.EmailNotifications,
		Newsletter:         d.Newsletter,
		DarkMode:           d.DarkMode,
		Language:           d.Language,
	}
}

// Get returns the stored preferences, or the defaults when the account has
// never written any. A missing document is not an error.
func (r *PreferencesRepository) Get(ctx context.Context, accountID string) (*domain.Preferences, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoPreferences
	if err := r.coll.FindOne(ctx, bson.M{"_id": accountID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.DefaultPreferences(accountID), nil
		}
		return nil, storeErr("find preferences", err)
	}
	return doc.toDomain(), nil
}

// Upsert applies the non-nil fields over the current values (defaults when
// no document exists yet) and writes the merged record back.
func (r *PreferencesRepository) Upsert(ctx context.Context, accountID string, params ports.UpdatePreferencesParams) (*domain.Preferences, error) {
	current, err := r.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if params.EmailNotifications != nil {
		current.EmailNotifications = *params.EmailNotifications
	}
	if params.Newsletter != nil {
		current.Newsletter = *params.Newsletter
	}
	if params.DarkMode != nil {
		current.DarkMode = *params.DarkMode
	}
	if params.Language != nil {
		current.Language = *params.Language
	}

	doc := mongoPreferences{
		AccountID:          accountID,
		EmailNotifications: current.EmailNotifications,
		Newsletter:         current.Newsletter,
		DarkMode:           current.DarkMode,
		Language:           current.Language,
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": accountID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, storeErr("upsert preferences", err)
	}
	return current, nil
}
