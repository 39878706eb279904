package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/orgfinance/internal/auth"
	"github.com/frahmantamala/orgfinance/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

// MockUserStore implements auth.UserStore for testing
type MockUserStore struct {
	users map[string]*user.User
}

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[string]*user.User)}
}

func (m *MockUserStore) Create(ctx context.Context, u *user.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

var _ = Describe("AuthService", func() {
	var (
		ctx     context.Context
		store   *MockUserStore
		service *auth.Service
	)

	signUp := func() *user.User {
		u, tokens, err := service.SignUp(ctx, auth.SignUpDTO{
			Email:    "fadhil@mail.com",
			Password: "password123",
			FullName: "Fadhil",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(tokens.AccessToken).NotTo(BeEmpty())
		Expect(tokens.RefreshToken).NotTo(BeEmpty())
		return u
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = NewMockUserStore()
		tokenGen := auth.NewJWTTokenGenerator("access-secret", "refresh-secret")
		service = auth.NewService(store, tokenGen, bcrypt.MinCost)
	})

	Describe("SignUp", func() {
		It("should store a hashed password, never the plaintext", func() {
			u := signUp()
			Expect(u.PasswordHash).NotTo(Equal("password123"))
			Expect(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123"))).To(Succeed())
		})

		It("should lowercase the email", func() {
			u, _, err := service.SignUp(ctx, auth.SignUpDTO{
				Email:    "  Fadhil@Mail.com ",
				Password: "password123",
				FullName: "Fadhil",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("fadhil@mail.com"))
		})

		It("should reject a duplicate email", func() {
			signUp()
			_, _, err := service.SignUp(ctx, auth.SignUpDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
				FullName: "Other Fadhil",
			})
			Expect(err).To(Equal(auth.ErrEmailTaken))
		})

		It("should reject short passwords", func() {
			_, _, err := service.SignUp(ctx, auth.SignUpDTO{
				Email:    "fadhil@mail.com",
				Password: "short",
				FullName: "Fadhil",
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			signUp()
		})

		It("should issue tokens for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
		})

		It("should reject a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "wrong-password",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should not reveal whether the email exists", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "nobody@mail.com",
				Password: "password123",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject deactivated users", func() {
			for _, u := range store.users {
				u.IsActive = false
			}

			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
			})
			Expect(err).To(Equal(auth.ErrUserInactive))
		})
	})

	Describe("ValidateAccessToken", func() {
		It("should resolve a fresh token to its user", func() {
			u := signUp()
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
			})
			Expect(err).NotTo(HaveOccurred())

			userID, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(userID).To(Equal(u.ID))
		})

		It("should reject a refresh token used as an access token", func() {
			signUp()
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ValidateAccessToken(tokens.RefreshToken)
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})

		It("should reject an expired token", func() {
			expiredGen := auth.NewJWTTokenGenerator("access-secret", "refresh-secret")
			expiredGen.AccessTokenTTL = -time.Minute
			expired := auth.NewService(store, expiredGen, bcrypt.MinCost)

			u := signUp()
			token, err := expiredGen.GenerateAccessToken(u.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = expired.ValidateAccessToken(token)
			Expect(err).To(Equal(auth.ErrTokenExpired))
		})
	})

	Describe("RefreshTokens", func() {
		It("should rotate the pair for an active user", func() {
			signUp()
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
			})
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.AccessToken).NotTo(BeEmpty())
		})

		It("should reject a refresh for a deactivated user", func() {
			signUp()
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
			})
			Expect(err).NotTo(HaveOccurred())

			for _, u := range store.users {
				u.IsActive = false
			}

			_, err = service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).To(Equal(auth.ErrUserInactive))
		})

		It("should reject an access token used as a refresh token", func() {
			signUp()
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "fadhil@mail.com",
				Password: "password123",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.AccessToken)
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})
	})
})
