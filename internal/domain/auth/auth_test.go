package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateToken(secret, Claims{PersonID: "person-1", Role: RoleStaff}, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.PersonID != "person-1" {
		t.Fatalf("expected person-1, got %s", claims.PersonID)
	}
	if claims.Role != RoleStaff {
		t.Fatalf("expected staff role, got %s", claims.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{PersonID: "person-1", Role: RoleAdmin}, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword(hash, "wrong horse"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestRolePermissions(t *testing.T) {
	if !HasPermission(RoleStaff, PermLeaveWrite) {
		t.Fatal("staff should be able to submit leave")
	}
	if HasPermission(RoleStaff, PermLeaveApprove) {
		t.Fatal("staff must not approve leave")
	}
	if !HasPermission(RoleAdmin, PermLeaveApprove) {
		t.Fatal("admin should approve leave")
	}
	if HasPermission("unknown", PermLeaveRead) {
		t.Fatal("unknown role has no permissions")
	}
}
