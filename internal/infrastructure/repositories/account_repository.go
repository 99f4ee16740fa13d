package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements domain.AccountRepository and domain.AccountGate using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// DBProfile is embedded with a column prefix in both account tables
type DBProfile struct {
	FirstName  string `gorm:"size:128"`
	LastName   string `gorm:"size:128"`
	Phone      string `gorm:"size:32"`
	Language   string `gorm:"size:16"`
	Industry   string
	Company    string
	Position   string
	Address    string
	City       string
	State      string
	Country    string
	Zipcode    string `gorm:"size:32"`
	Telephone1 string `gorm:"size:32"`
	Telephone2 string `gorm:"size:32"`
	DOB        string `gorm:"column:dob;size:32"`
	Picture    string
}

// DBAccount represents the credential-side user record
type DBAccount struct {
	ID            string     `gorm:"primaryKey;size:36"`
	Username      *string    `gorm:"uniqueIndex;size:255"`
	Type          string     `gorm:"size:16"`
	Role          string     `gorm:"index;size:64"`
	OTP           string     `gorm:"column:otp;size:16"`
	OTPExpiresAt  *time.Time `gorm:"column:otp_expires_at"`
	PasswordHash  string     `gorm:"column:password"`
	PhoneVerified bool
	IsDeleted     bool      `gorm:"index"`
	State         string    `gorm:"size:16"`
	Profile       DBProfile `gorm:"embedded;embeddedPrefix:profile_"`
	Emails        []DBEmail `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string {
	return "users"
}

// DBEmail is one address of a user; Position 0 is authoritative
type DBEmail struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   string `gorm:"index;size:36"`
	Position int
	Address  string `gorm:"uniqueIndex;size:255"`
	Verified bool
	Provides string `gorm:"size:32"`
}

// TableName returns the table name for GORM
func (DBEmail) TableName() string {
	return "user_emails"
}

// DBAccountProfile represents the shop-facing account document
type DBAccountProfile struct {
	ID               string `gorm:"primaryKey;size:36"`
	Name             string
	Username         string `gorm:"size:255"`
	Email            string `gorm:"index;size:255"`
	EmailVerified    bool
	PhoneVerified    bool
	Profile          DBProfile `gorm:"embedded;embeddedPrefix:profile_"`
	ProfileImage     string
	State            string `gorm:"size:16"`
	IsDeleted        bool   `gorm:"index"`
	Type             string `gorm:"size:16"`
	Role             string `gorm:"index;size:64"`
	ShopID           string `gorm:"size:36"`
	AcceptsMarketing bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (DBAccountProfile) TableName() string {
	return "accounts"
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

var (
	_ domain.AccountRepository = (*AccountRepositoryImpl)(nil)
	_ domain.AccountGate       = (*AccountRepositoryImpl)(nil)
)

// Create implements domain.AccountRepository
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := r.domainToDB(account)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range dbAccount.Emails {
			var count int64
			if err := tx.Model(&DBEmail{}).Where("address = ?", e.Address).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return domain.ErrEmailExists
			}
		}
		if dbAccount.Username != nil {
			var count int64
			if err := tx.Model(&DBAccount{}).Where("username = ?", *dbAccount.Username).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return domain.ErrUsernameExists
			}
		}
		return tx.Create(dbAccount).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if len(dbAccount.Emails) > 0 {
				return domain.ErrEmailExists
			}
			return domain.ErrUsernameExists
		}
		return err
	}

	account.CreatedAt = dbAccount.CreatedAt
	account.UpdatedAt = dbAccount.UpdatedAt
	return nil
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.withEmails(ctx).Where("id = ?", id).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// FindByEmail implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var dbEmail DBEmail
	err := r.db.WithContext(ctx).Where("address = ?", normalizeEmail(email)).First(&dbEmail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, dbEmail.UserID)
}

// FindByUsername implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.withEmails(ctx).Where("username = ?", username).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// SaveChallenge implements domain.AccountRepository
func (r *AccountRepositoryImpl) SaveChallenge(ctx context.Context, id string, challenge domain.OTPChallenge) error {
	expiresAt := challenge.ExpiresAt.UTC()
	res := r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).Updates(map[string]interface{}{
		"otp":            challenge.Code,
		"otp_expires_at": &expiresAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// MarkVerified implements domain.AccountRepository
func (r *AccountRepositoryImpl) MarkVerified(ctx context.Context, id string, proof domain.ChallengeProof, field domain.VerificationField) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return markVerifiedTx(tx, id, proof, field, map[string]interface{}{})
	})
}

// ResetPassword implements domain.AccountRepository
func (r *AccountRepositoryImpl) ResetPassword(ctx context.Context, id string, proof domain.ChallengeProof, passwordHash string, field domain.VerificationField) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return markVerifiedTx(tx, id, proof, field, map[string]interface{}{"password": passwordHash})
	})
}

// markVerifiedTx consumes the challenge matching proof and flips field on both
// records. extra columns are written to the users row in the same statement.
// The users row is updated first and only while the challenge still matches,
// so concurrent consumers of one code see exactly one success.
func markVerifiedTx(tx *gorm.DB, id string, proof domain.ChallengeProof, field domain.VerificationField, extra map[string]interface{}) error {
	if proof.Code == "" {
		return domain.ErrOTPIncorrect
	}
	updates := map[string]interface{}{
		"otp":            "",
		"otp_expires_at": nil,
	}
	for k, v := range extra {
		updates[k] = v
	}

	profileColumn := ""
	switch field {
	case domain.FieldPhoneVerified:
		updates["phone_verified"] = true
		profileColumn = "phone_verified"
	case domain.FieldEmailVerified:
		profileColumn = "email_verified"
	default:
		return domain.InvalidParameter("unknown verification field")
	}

	res := tx.Model(&DBAccount{}).
		Where("id = ? AND otp = ? AND otp_expires_at > ?", id, proof.Code, proof.At.UTC()).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&DBAccount{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrAccountNotFound
		}
		return domain.ErrOTPIncorrect
	}

	if field == domain.FieldEmailVerified {
		if err := tx.Model(&DBEmail{}).Where("user_id = ? AND position = ?", id, 0).Update("verified", true).Error; err != nil {
			return fmt.Errorf("failed to verify email: %w", err)
		}
	}

	// The profile record is optional; accounts created without one have nothing to mirror.
	return tx.Model(&DBAccountProfile{}).Where("id = ?", id).Update(profileColumn, true).Error
}

// UpdatePassword implements domain.AccountRepository
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// CreateProfile implements domain.AccountRepository
func (r *AccountRepositoryImpl) CreateProfile(ctx context.Context, profile *domain.AccountProfile) error {
	dbProfile := profileToDB(profile)
	if err := r.db.WithContext(ctx).Create(dbProfile).Error; err != nil {
		return err
	}
	profile.CreatedAt = dbProfile.CreatedAt
	profile.UpdatedAt = dbProfile.UpdatedAt
	return nil
}

// FindProfile implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindProfile(ctx context.Context, id string) (*domain.AccountProfile, error) {
	var dbProfile DBAccountProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbProfile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return profileToDomain(&dbProfile), nil
}

// ListProfilesByRole implements domain.AccountRepository
func (r *AccountRepositoryImpl) ListProfilesByRole(ctx context.Context, role domain.Role) ([]domain.AccountProfile, error) {
	var rows []DBAccountProfile
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_deleted = ?", string(role), false).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.AccountProfile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, *profileToDomain(&rows[i]))
	}
	return profiles, nil
}

// SoftDelete implements domain.AccountRepository
func (r *AccountRepositoryImpl) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&DBAccount{}).Where("id = ?", id).Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAccountNotFound
		}
		return tx.Model(&DBAccountProfile{}).Where("id = ?", id).Update("is_deleted", true).Error
	})
}

// EnsureActive implements domain.AccountGate
func (r *AccountRepositoryImpl) EnsureActive(ctx context.Context, id string) error {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Select("id", "is_deleted").Where("id = ?", id).First(&dbAccount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	if dbAccount.IsDeleted {
		return domain.ErrAccountDeleted
	}

	var deletedProfiles int64
	err = r.db.WithContext(ctx).Model(&DBAccountProfile{}).
		Where("id = ? AND is_deleted = ?", id, true).
		Count(&deletedProfiles).Error
	if err != nil {
		return err
	}
	if deletedProfiles > 0 {
		return domain.ErrAccountDeleted
	}
	return nil
}

func (r *AccountRepositoryImpl) withEmails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Emails", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// domainToDB converts domain account to database account
func (r *AccountRepositoryImpl) domainToDB(account *domain.Account) *DBAccount {
	dbAccount := &DBAccount{
		ID:            account.ID,
		Type:          string(account.Type),
		Role:          string(account.Role),
		OTP:           account.OTP,
		OTPExpiresAt:  account.OTPExpiresAt,
		PasswordHash:  account.PasswordHash,
		PhoneVerified: account.PhoneVerified,
		IsDeleted:     account.IsDeleted,
		State:         string(account.State),
		Profile:       DBProfile(account.Profile),
	}
	if account.Username != "" {
		username := account.Username
		dbAccount.Username = &username
	}
	for i, e := range account.Emails {
		dbAccount.Emails = append(dbAccount.Emails, DBEmail{
			UserID:   account.ID,
			Position: i,
			Address:  normalizeEmail(e.Address),
			Verified: e.Verified,
			Provides: e.Provides,
		})
	}
	return dbAccount
}

// dbToDomain converts database account to domain account
func (r *AccountRepositoryImpl) dbToDomain(dbAccount *DBAccount) *domain.Account {
	account := &domain.Account{
		ID:            dbAccount.ID,
		Type:          domain.IdentityType(dbAccount.Type),
		Role:          domain.Role(dbAccount.Role),
		OTP:           dbAccount.OTP,
		OTPExpiresAt:  dbAccount.OTPExpiresAt,
		PasswordHash:  dbAccount.PasswordHash,
		PhoneVerified: dbAccount.PhoneVerified,
		IsDeleted:     dbAccount.IsDeleted,
		State:         domain.AccountState(dbAccount.State),
		Profile:       domain.Profile(dbAccount.Profile),
		CreatedAt:     dbAccount.CreatedAt,
		UpdatedAt:     dbAccount.UpdatedAt,
	}
	if dbAccount.Username != nil {
		account.Username = *dbAccount.Username
	}
	for _, e := range dbAccount.Emails {
		account.Emails = append(account.Emails, domain.Email{
			Address:  e.Address,
			Verified: e.Verified,
			Provides: e.Provides,
		})
	}
	return account
}

func profileToDB(p *domain.AccountProfile) *DBAccountProfile {
	dbProfile := &DBAccountProfile{
		ID:               p.AccountID,
		Name:             p.Name,
		Username:         p.Username,
		PhoneVerified:    p.PhoneVerified,
		Profile:          DBProfile(p.Profile),
		ProfileImage:     p.ProfileImage,
		State:            string(p.State),
		IsDeleted:        p.IsDeleted,
		Type:             string(p.Type),
		Role:             string(p.Role),
		ShopID:           p.ShopID,
		AcceptsMarketing: p.AcceptsMarketing,
	}
	if len(p.Emails) > 0 {
		dbProfile.Email = normalizeEmail(p.Emails[0].Address)
		dbProfile.EmailVerified = p.Emails[0].Verified
	}
	return dbProfile
}

func profileToDomain(dbProfile *DBAccountProfile) *domain.AccountProfile {
	p := &domain.AccountProfile{
		AccountID:        dbProfile.ID,
		Name:             dbProfile.Name,
		Username:         dbProfile.Username,
		PhoneVerified:    dbProfile.PhoneVerified,
		Profile:          domain.Profile(dbProfile.Profile),
		ProfileImage:     dbProfile.ProfileImage,
		State:            domain.AccountState(dbProfile.State),
		IsDeleted:        dbProfile.IsDeleted,
		Type:             domain.IdentityType(dbProfile.Type),
		Role:             domain.Role(dbProfile.Role),
		ShopID:           dbProfile.ShopID,
		AcceptsMarketing: dbProfile.AcceptsMarketing,
		CreatedAt:        dbProfile.CreatedAt,
		UpdatedAt:        dbProfile.UpdatedAt,
	}
	if dbProfile.Email != "" {
		p.Emails = []domain.Email{{Address: dbProfile.Email, Verified: dbProfile.EmailVerified, Provides: "default"}}
	}
	return p
}
