package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velia/accounts-api/internal/core/domain"
	"github.com/velia/accounts-api/internal/core/ports"
)

const (
	accountCollection        = "accounts"
	passwordChangeCollection = "password_changes"
)

// AccountRepository is the MongoDB credential store. It owns both the
// accounts collection and the append-only password_changes audit collection,
// because reset-token consumption writes to the two together.
type AccountRepository struct {
	accounts *mongo.Collection
	changes  *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		accounts: db.Collection(accountCollection),
		changes:  db.Collection(passwordChangeCollection),
	}
}

type mongoAccount struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Email             string             `bson:"email"`
	FirstName         string             `bson:"first_name,omitempty"`
	LastName          string             `bson:"last_name,omitempty"`
	PasswordHash      string             `bson:"password_hash"`
	Active            bool               `bson:"active"`
	Role              string             `bson:"role"`
	Image             string             `bson:"image,omitempty"`
	VerificationToken string             `bson:"verification_token,omitempty"`
	ResetToken        string             `bson:"reset_token,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
	LastLogin         *time.Time         `bson:"last_login,omitempty"`
}

type mongoPasswordChange struct {
	AccountID primitive.ObjectID `bson:"account_id"`
	ChangedAt time.Time          `bson:"changed_at"`
}

func (d *mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:                d.ID.Hex(),
		Email:             d.Email,
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		PasswordHash:      d.PasswordHash,
		Active:            d.Active,
		Role:              domain.Role(d.Role),
		Image:             d.Image,
		VerificationToken: d.VerificationToken,
		ResetToken:        d.ResetToken,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		LastLogin:         d.LastLogin,
	}
}

// EnsureIndexes creates the indexes the credential store relies on: the
// unique email constraint and the sparse token lookup indexes.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verification_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "reset_token", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return storeErr("create account indexes", err)
	}

	_, err = r.changes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "changed_at", Value: -1}}},
	})
	if err != nil {
		return storeErr("create password change indexes", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := r.accounts.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeErr("find account", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := r.accounts.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeErr("find account by email", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := mongoAccount{
		Email:             strings.ToLower(account.Email),
		FirstName:         account.FirstName,
		LastName:          account.LastName,
		PasswordHash:      account.PasswordHash,
		Active:            account.Active,
		Role:              string(account.Role),
		Image:             account.Image,
		VerificationToken: account.VerificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	result, err := r.accounts.InsertOne(ctx, doc)
	if err != nil {
		return nil, writeErr("insert account", err)
	}

	doc.ID = result.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

// Update writes only the allow-listed fields carried by params. Anything a
// caller might have attached beyond those pointer fields simply has no way
// into the document.
func (r *AccountRepository) Update(ctx context.Context, id string, params ports.UpdateAccountParams) (*domain.Account, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if params.Email != nil {
		set["email"] = strings.ToLower(*params.Email)
	}
	if params.FirstName != nil {
		set["first_name"] = *params.FirstName
	}
	if params.LastName != nil {
		set["last_name"] = *params.LastName
	}
	if params.Image != nil {
		set["image"] = *params.Image
	}
	if params.Active != nil {
		set["active"] = *params.Active
	}
	if params.Role != nil {
		set["role"] = string(*params.Role)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	err = r.accounts.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, writeErr("update account", err)
	}
	return doc.toDomain(), nil
}

// UpdatePassword replaces the stored hash and appends one change record.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	result, err := r.accounts.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": now}},
	)
	if err != nil {
		return storeErr("update password", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}

	return r.appendChange(ctx, objectID, now)
}

func (r *AccountRepository) IssueVerificationToken(ctx context.Context, id, token string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.accounts.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"verification_token": token, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return storeErr("issue verification token", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ConsumeVerificationToken activates the account holding token and clears
// the token in a single filtered update. Under concurrent calls with the
// same token the filter matches for exactly one of them; the matched count
// is the winner/loser signal.
func (r *AccountRepository) ConsumeVerificationToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.accounts.UpdateOne(
		ctx,
		bson.M{"verification_token": token},
		bson.M{
			"$set":   bson.M{"active": true, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"verification_token": ""},
		},
	)
	if err != nil {
		return false, storeErr("consume verification token", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *AccountRepository) IssueResetToken(ctx context.Context, email, token string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	err := r.accounts.FindOneAndUpdate(
		ctx,
		bson.M{"email": strings.ToLower(email)},
		bson.M{"$set": bson.M{"reset_token": token, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeErr("issue reset token", err)
	}
	return doc.toDomain(), nil
}

// ConsumeResetToken installs the new hash and clears the token in a single
// filtered update, then appends the audit record. Racing consumers resolve
// to exactly one winner the same way ConsumeVerificationToken does.
// Once the filtered update matched, the new hash is live and the token is
// gone regardless of what happens to the audit append, so a failed append
// still reports the consumption as successful alongside the error.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error) {
	if token == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	var doc mongoAccount
	err := r.accounts.FindOneAndUpdate(
		ctx,
		bson.M{"reset_token": token},
		bson.M{
			"$set":   bson.M{"password_hash": passwordHash, "updated_at": now},
			"$unset": bson.M{"reset_token": ""},
		},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, storeErr("consume reset token", err)
	}

	if err := r.appendChange(ctx, doc.ID, now); err != nil {
		return true, err
	}
	return true, nil
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.accounts.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": time.Now().UTC()}},
	)
	if err != nil {
		return storeErr("record login", err)
	}
	return nil
}

func (r *AccountRepository) LastPasswordChange(ctx context.Context, id string) (*time.Time, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var change mongoPasswordChange
	err = r.changes.FindOne(
		ctx,
		bson.M{"account_id": objectID},
		options.FindOne().SetSort(bson.D{{Key: "changed_at", Value: -1}}),
	).Decode(&change)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storeErr("find last password change", err)
	}
	return &change.ChangedAt, nil
}

func (r *AccountRepository) FindAll(ctx context.Context, limit, offset int64) ([]*domain.Account, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	findOptions := options.Find().
		SetLimit(limit).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.accounts.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, storeErr("list accounts", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Account
	for cursor.Next(ctx) {
		var doc mongoAccount
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeErr("decode account", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, storeErr("list accounts", err)
	}
	return out, nil
}

func (r *AccountRepository) appendChange(ctx context.Context, accountID primitive.ObjectID, at time.Time) error {
	_, err := r.changes.InsertOne(ctx, mongoPasswordChange{AccountID: accountID, ChangedAt: at})
	if err != nil {
		return storeErr("append password change", err)
	}
	return nil
}
