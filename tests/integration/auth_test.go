package integration

import (
	"fmt"
	"net/http"
	"testing"

	"plata/internal/models"
)

func TestAuth_RegisterLoginAndProfile(t *testing.T) {
	app := setupApp(t)
	orgID := app.createOrganization(t, "Auth Org")

	token, userID := app.registerUser(t, "auth@test.com", models.RoleBasicUser, orgID)
	if token == "" {
		t.Fatal("expected a token from registration")
	}

	// Login with the same credentials
	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"auth@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	loginToken := parseJSON(t, rec)["token"].(string)

	// Profile reflects the registered user
	rec = app.request("GET", "/api/v1/me", "", loginToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["id"].(float64) != userID {
		t.Errorf("expected user ID %.0f, got %v", userID, user["id"])
	}
	if user["role"] != string(models.RoleBasicUser) {
		t.Errorf("expected USUARIO_BASICO role, got %v", user["role"])
	}
}

func TestAuth_InvalidCredentials(t *testing.T) {
	app := setupApp(t)
	orgID := app.createOrganization(t, "Auth Org")
	app.registerUser(t, "victim@test.com", models.RoleBasicUser, orgID)

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"victim@test.com","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}

	// Unknown email yields the same error
	rec = app.request("POST", "/api/v1/auth/login",
		`{"email":"ghost@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_DuplicateEmail(t *testing.T) {
	app := setupApp(t)
	orgID := app.createOrganization(t, "Auth Org")
	app.registerUser(t, "dup@test.com", models.RoleBasicUser, orgID)

	body := fmt.Sprintf(`{"email":"dup@test.com","password":"password123","name":"Dup","organization_id":%d}`, orgID)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_CategoryMutationRequiresAdmin(t *testing.T) {
	app := setupApp(t)
	orgID := app.createOrganization(t, "Auth Org")
	basicToken, _ := app.registerUser(t, "basic2@test.com", models.RoleBasicUser, orgID)

	rec := app.request("POST", "/api/v1/categories",
		`{"name":"Nope","type":"expense"}`, basicToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	// Reading categories is open to everyone authenticated
	rec = app.request("GET", "/api/v1/categories", "", basicToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
