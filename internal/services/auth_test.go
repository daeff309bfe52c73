package services

import (
	"context"
	"strings"
	"testing"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Auth.Register(ctx, RegisterInput{
		Name:         "Jane",
		Email:        "  Jane@Example.com ",
		Password:     "secret1",
		ConsentGiven: true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" || res.User.Role != models.RolePatient || res.User.Email != "jane@example.com" {
		t.Fatalf("unexpected result: %+v", res.User)
	}

	login, err := f.svc.Auth.Login(ctx, "JANE@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Error("login returned a different user")
	}

	_, err = f.svc.Auth.Login(ctx, "jane@example.com", "wrong-pass")
	wantKind(t, err, ErrUnauthorized)
	_, err = f.svc.Auth.Login(ctx, "nobody@example.com", "secret1")
	wantKind(t, err, ErrUnauthorized)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	valid := RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "secret1", ConsentGiven: true}
	if _, err := f.svc.Auth.Register(ctx, valid); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"duplicate email", func(in *RegisterInput) {}},
		{"missing name", func(in *RegisterInput) { in.Name = " "; in.Email = "a@example.com" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Email = "b@example.com"; in.Password = "12345" }},
		{"short multibyte password", func(in *RegisterInput) { in.Email = "d@example.com"; in.Password = "ééé" }},
		{"password over bcrypt limit", func(in *RegisterInput) { in.Email = "e@example.com"; in.Password = strings.Repeat("a", 80) }},
		{"no consent", func(in *RegisterInput) { in.Email = "c@example.com"; in.ConsentGiven = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.svc.Auth.Register(ctx, in)
			wantKind(t, err, ErrValidation)
		})
	}
}

func TestUpdateProfileAndBasicInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "pat", models.RolePatient, f.now)
	f.addUser(t, "taken", models.RolePatient, f.now)

	name := "Patricia"
	consent := true
	got, err := f.svc.Auth.UpdateProfile(ctx, u.ID.Hex(), ProfileUpdate{
		Name:         &name,
		ConsentGiven: &consent,
		HealthInfo:   &models.HealthInfo{Allergies: []string{"pollen"}},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if got.Name != name || !got.ConsentGiven || got.HealthInfo == nil || got.HealthInfo.Allergies[0] != "pollen" {
		t.Errorf("profile not updated: %+v", got)
	}

	taken := "taken@example.com"
	_, err = f.svc.Auth.UpdateProfile(ctx, u.ID.Hex(), ProfileUpdate{Email: &taken})
	wantKind(t, err, ErrValidation)

	got, err = f.svc.Auth.UpdateBasicInfo(ctx, u.ID.Hex(), models.BasicInfo{Age: 41, BloodGroup: "O+"})
	if err != nil {
		t.Fatalf("update basic info: %v", err)
	}
	if got.BasicInfo == nil || got.BasicInfo.Age != 41 || got.Name != name {
		t.Errorf("basic info not updated: %+v", got)
	}

	_, err = f.svc.Auth.UpdateBasicInfo(ctx, u.ID.Hex(), models.BasicInfo{Age: -1})
	wantKind(t, err, ErrValidation)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, created, err := f.svc.Auth.EnsureAdmin(ctx, "Admin", "admin@healthcare.com", "admin123")
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("unexpected role %q", admin.Role)
	}
	again, created, err := f.svc.Auth.EnsureAdmin(ctx, "Admin", "admin@healthcare.com", "admin123")
	if err != nil || created || again.ID != admin.ID {
		t.Fatalf("second call should find the existing admin: created=%v err=%v", created, err)
	}
}

func TestPasswordBounds_EveryEntryPoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("p", maxPasswordBytes+1)

	_, err := f.svc.Auth.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: long, ConsentGiven: true})
	wantKind(t, err, ErrValidation)
	_, _, err = f.svc.Auth.EnsureAdmin(ctx, "Admin", "admin@example.com", long)
	wantKind(t, err, ErrValidation)
	_, err = f.svc.Admin.CreateProvider(ctx, ProviderInput{Name: "Dr", Email: "dr@example.com", Password: long})
	wantKind(t, err, ErrValidation)

	p, err := f.svc.Admin.CreateProvider(ctx, ProviderInput{Name: "Dr", Email: "dr@example.com", Password: "tardis"})
	if err != nil {
		t.Fatal(err)
	}
	wantKind(t, f.svc.Admin.ResetProviderPassword(ctx, p.ID.Hex(), long), ErrValidation)

	// Six multibyte characters are accepted and the 72-byte bound is inclusive.
	if _, err := f.svc.Auth.Register(ctx, RegisterInput{Name: "Zoé", Email: "zoe@example.com", Password: "éééééé", ConsentGiven: true}); err != nil {
		t.Errorf("six accented characters: %v", err)
	}
	if err := f.svc.Admin.ResetProviderPassword(ctx, p.ID.Hex(), long[:maxPasswordBytes]); err != nil {
		t.Errorf("72-byte password: %v", err)
	}
}
