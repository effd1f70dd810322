package users

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/miroapi/internal/testutil"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db := testutil.NewDatabase(&User{})
	testutil.T(t).Setup(db)
	return NewRepository(db.DB())
}

func sample(username, email string) *User {
	return &User{
		Username:  username,
		Password:  "$2a$12$hash",
		Email:     email,
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := sample("alice123", "alice@x.io")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}

	got, err := repo.FindByUsername(ctx, "alice123")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if got.ID != u.ID || got.Email != "alice@x.io" {
		t.Errorf("unexpected user %+v", got)
	}
	if !got.IsActive || got.IsStaff || got.IsSuperuser {
		t.Errorf("unexpected flags active=%v staff=%v super=%v", got.IsActive, got.IsStaff, got.IsSuperuser)
	}
}

func TestRepository_FindMissing(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.FindByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_Duplicates(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sample("alice123", "alice@x.io")); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, sample("alice123", "other@x.io")); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("duplicate username: expected ErrDuplicateUser, got %v", err)
	}
	if err := repo.Create(ctx, sample("bob1234", "alice@x.io")); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("duplicate email: expected ErrDuplicateUser, got %v", err)
	}
}

func TestRepository_ConcurrentDuplicate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Create(ctx, sample("racer01", "racer@x.io"))
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateUser):
			dup++
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if ok != 1 || dup != n-1 {
		t.Errorf("expected 1 success and %d duplicates, got %d/%d", n-1, ok, dup)
	}
}

func TestUser_PasswordNotSerialized(t *testing.T) {
	b, err := json.Marshal(sample("alice123", "alice@x.io"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "hash") || strings.Contains(string(b), "password") {
		t.Errorf("password leaked into JSON: %s", b)
	}
}
