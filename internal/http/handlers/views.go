package handlers

import (
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/gin-gonic/gin"
)

// ProfileBody is the optional profile block of signup requests
type ProfileBody struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Language   string `json:"language"`
	Industry   string `json:"industry"`
	Company    string `json:"company"`
	Position   string `json:"position"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	Zipcode    string `json:"zipcode"`
	Telephone1 string `json:"telephone1"`
	Telephone2 string `json:"telephone2"`
	DOB        string `json:"dob"`
	Picture    string `json:"picture"`
}

func (p ProfileBody) toDomain() domain.Profile {
	return domain.Profile(p)
}

func tokensView(r *domain.LoginResult) gin.H {
	return gin.H{
		"user_id":       r.UserID,
		"session_id":    r.SessionID,
		"access_token":  r.Tokens.AccessToken,
		"refresh_token": r.Tokens.RefreshToken,
		"token_type":    r.Tokens.TokenType,
		"expires_in":    r.Tokens.ExpiresIn,
	}
}

func accountView(a *domain.Account) gin.H {
	emails := make([]gin.H, 0, len(a.Emails))
	for _, e := range a.Emails {
		emails = append(emails, gin.H{"address": e.Address, "verified": e.Verified, "provides": e.Provides})
	}
	return gin.H{
		"id":             a.ID,
		"username":       a.Username,
		"emails":         emails,
		"type":           a.Type,
		"role":           a.Role,
		"phone_verified": a.PhoneVerified,
		"state":          a.State,
		"profile":        ProfileBody(a.Profile),
		"created_at":     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func profileView(p domain.AccountProfile) gin.H {
	emails := make([]gin.H, 0, len(p.Emails))
	for _, e := range p.Emails {
		emails = append(emails, gin.H{"address": e.Address, "verified": e.Verified})
	}
	return gin.H{
		"id":             p.AccountID,
		"name":           p.Name,
		"username":       p.Username,
		"emails":         emails,
		"phone_verified": p.PhoneVerified,
		"profile_image":  p.ProfileImage,
		"state":          p.State,
		"type":           p.Type,
		"role":           p.Role,
		"created_at":     p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
