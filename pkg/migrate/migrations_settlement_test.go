package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tillpoint/tillpoint-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCheckoutsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_checkouts_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS checkouts",
		"CREATE TABLE IF NOT EXISTS order_lines",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_checkouts_order_code",
		"CHECK (status IN ('confirmed', 'shipped', 'delivered', 'cancelled'))",
		"FOREIGN KEY (checkout_id) REFERENCES checkouts(id) ON DELETE CASCADE",
		"CHECK (qty > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLoyaltyMigrationCoversEntryTypes(t *testing.T) {
	content := readMigration(t, "*_create_loyalty_entries.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS loyalty_entries",
		"CHECK (type IN ('login', 'purchase', 'redeem', 'refund', 'reversal'))",
		"FOREIGN KEY (account_id) REFERENCES accounts(id)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAccountsMigrationGuardsBalance(t *testing.T) {
	content := readMigration(t, "*_create_accounts_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS accounts",
		"CHECK (reward_points >= 0)",
		"CHECK (role IN ('user', 'staff', 'admin'))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}
