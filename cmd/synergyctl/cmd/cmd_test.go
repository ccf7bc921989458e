package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/synergy/internal/security"
	"github.com/good-yellow-bee/synergy/internal/service"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

// seedDB creates a database with one user and one project.
func seedDB(t *testing.T) (path, projectID string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "synergy.db")

	store := storage.NewSQLiteStorage(path)
	if err := store.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	svc := service.New(store, nil, service.Config{BcryptCost: bcrypt.MinCost})
	owner, err := svc.Register(ctx, service.RegisterInput{
		Email: "owner@example.com", Password: "Correct-Horse-42", FirstName: "Olivia", LastName: "Owner",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	p, err := svc.CreateProject(ctx, owner.ID, service.ProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return path, p.ID
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		output = "table"
		rootCmd.SetIn(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUserList(t *testing.T) {
	path, _ := seedDB(t)

	out, err := run(t, "", "--db", path, "user", "list")
	if err != nil {
		t.Fatalf("user list: %v", err)
	}
	if !strings.Contains(out, "owner@example.com") || !strings.Contains(out, "Total: 1 user(s)") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "$2a$") {
		t.Error("password hash printed")
	}
}

func TestUserCreate(t *testing.T) {
	path, _ := seedDB(t)
	const pw = "Another-Secret-7"

	_, err := run(t, pw+"\n"+pw+"\n", "--db", path, "user", "create",
		"--email", "Jane@Example.com", "--first-name", "Jane", "--last-name", "Doe")
	if err != nil {
		t.Fatalf("user create: %v", err)
	}

	out, err := run(t, "", "--db", path, "-o", "json", "user", "list")
	if err != nil {
		t.Fatalf("user list: %v", err)
	}
	var users []struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %+v", users)
	}

	if _, err := run(t, "short\nshort\n", "--db", path, "user", "create",
		"--email", "x@example.com", "--first-name", "X", "--last-name", "Y"); err == nil {
		t.Error("weak password accepted")
	}
	if _, err := run(t, pw+"\nmismatch\n", "--db", path, "user", "create",
		"--email", "y@example.com", "--first-name", "X", "--last-name", "Y"); err == nil {
		t.Error("mismatched confirmation accepted")
	}
}

func TestUserPasswd(t *testing.T) {
	path, _ := seedDB(t)
	const pw = "Brand-New-Pass-9"

	if _, err := run(t, pw+"\n"+pw+"\n", "--db", path, "user", "passwd", "--email", "owner@example.com"); err != nil {
		t.Fatalf("passwd: %v", err)
	}

	store := storage.NewSQLiteStorage(path)
	if err := store.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	svc := service.New(store, nil, service.Config{})
	if _, err := svc.Authenticate(context.Background(), "owner@example.com", pw); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	if _, err := run(t, pw+"\n"+pw+"\n", "--db", path, "user", "passwd", "--email", "ghost@example.com"); err == nil {
		t.Error("unknown user accepted")
	}
}

func TestProjectCommands(t *testing.T) {
	path, id := seedDB(t)

	out, err := run(t, "", "--db", path, "project", "list")
	if err != nil {
		t.Fatalf("project list: %v", err)
	}
	if !strings.Contains(out, "Apollo") || !strings.Contains(out, "active") {
		t.Errorf("list output = %q", out)
	}

	out, err = run(t, "", "--db", path, "project", "members", "--id", id)
	if err != nil {
		t.Fatalf("project members: %v", err)
	}
	if !strings.Contains(out, "owner@example.com") || !strings.Contains(out, "admin*") {
		t.Errorf("members output = %q", out)
	}

	if _, err := run(t, "", "--db", path, "project", "members", "--id", "missing"); err == nil {
		t.Error("missing project accepted")
	}
}

func TestMissingDatabase(t *testing.T) {
	_, err := run(t, "", "--db", filepath.Join(t.TempDir(), "nope.db"), "user", "list")
	if err == nil || !strings.Contains(err.Error(), "database file not found") {
		t.Errorf("err = %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("a very long project name", 10); got != "a very ..." {
		t.Errorf("truncate long = %q", got)
	}
}

func TestCert(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "cert", "--out", dir, "--host", "synergy.test")
	if err != nil {
		t.Fatalf("cert: %v", err)
	}
	if !strings.Contains(out, filepath.Join(dir, "server.crt")) {
		t.Errorf("output = %q", out)
	}
	if _, err := security.LoadServerTLS(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")); err != nil {
		t.Errorf("load generated pair: %v", err)
	}
}
