package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			clearSeedData(db)
		}

		ownerID := seedUser(db, "fadhil@mail.com", "Fadhil")
		memberID := seedUser(db, "padil@mail.com", "Padil")

		orgID := seedOrganization(db, "Warung Kopi Fadhil", ownerID)
		seedMembership(db, orgID, ownerID, "owner")
		seedMembership(db, orgID, memberID, "member")

		now := time.Now()
		seedTransaction(db, orgID, ownerID, &ownerID, "income", "business", "1000.00", "Sales", now.AddDate(0, 0, -7), true)
		seedTransaction(db, orgID, ownerID, &ownerID, "expense_business", "business", "200.00", "Supplies", now.AddDate(0, 0, -5), false)
		seedTransaction(db, orgID, ownerID, &memberID, "held_allocate", "business", "300.00", nil, now.AddDate(0, 0, -3), false)
		seedTransaction(db, orgID, ownerID, &memberID, "expense_personal", "personal", "50.00", "Transport", now.AddDate(0, 0, -1), false)

		fmt.Println("Seeding complete")
	},
}

func clearSeedData(db *sqlx.DB) {
	tables := []string{
		"reimbursement_requests",
		"invite_codes",
		"transaction_categories",
		"transactions",
		"organization_members",
		"organizations",
		"users",
	}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			log.Fatalf("failed to clear %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

func seedUser(db *sqlx.DB, email, fullName string) string {
	var id string
	if err := db.Get(&id, "SELECT id FROM users WHERE email = $1", email); err == nil {
		fmt.Println("user already exists:", email)
		return id
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	id = uuid.NewString()
	_, err = db.Exec(`INSERT INTO users (id, email, full_name, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, now(), now())`, id, email, fullName, string(hash))
	if err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("seeded user:", email)
	return id
}

func seedOrganization(db *sqlx.DB, name, ownerID string) string {
	var id string
	if err := db.Get(&id, "SELECT id FROM organizations WHERE name = $1", name); err == nil {
		fmt.Println("organization already exists:", name)
		return id
	}

	id = uuid.NewString()
	_, err := db.Exec(`INSERT INTO organizations (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())`, id, name, ownerID)
	if err != nil {
		log.Fatalf("failed to insert organization %s: %v", name, err)
	}
	fmt.Println("seeded organization:", name)
	return id
}

func seedMembership(db *sqlx.DB, orgID, userID, role string) {
	var exists int
	if err := db.Get(&exists, "SELECT 1 FROM organization_members WHERE organization_id = $1 AND user_id = $2", orgID, userID); err == nil {
		return
	}

	_, err := db.Exec(`INSERT INTO organization_members (id, organization_id, user_id, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, true, now())`, uuid.NewString(), orgID, userID, role)
	if err != nil {
		log.Fatalf("failed to insert membership: %v", err)
	}
	fmt.Printf("seeded membership: user=%s role=%s\n", userID, role)
}

func seedTransaction(db *sqlx.DB, orgID, createdBy string, memberID *string, txType, fundedBy, amount string, category interface{}, occurredAt time.Time, isInitial bool) {
	_, err := db.Exec(`INSERT INTO transactions (id, organization_id, member_id, type, funded_by, amount, category, occurred_at, is_initial, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`,
		uuid.NewString(), orgID, memberID, txType, fundedBy, amount, category, occurredAt, isInitial, createdBy)
	if err != nil {
		log.Fatalf("failed to insert transaction: %v", err)
	}
}
