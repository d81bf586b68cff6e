package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/sacelhq/sacel/core/user"
)

func Test_userApi_login(t *testing.T) {
	usr := createUser(t, "auth_alice", nil, 0, nil, "s3cr3t")
	inactive := createUser(t, "auth_sleepy", nil, 0, nil, "s3cr3t")
	inactive.IsActive = false
	if _, err := usrRepo.UpdateUser(context.Background(), inactive); err != nil {
		t.Fatalf("UpdateUser(): %v", err)
	}

	tests := []httpTest{
		{
			name:     "empty body",
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, map[string]string{"username": "nobody", "password": "pwd"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errJSON{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, map[string]string{"username": usr.Username, "password": "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errJSON{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, map[string]string{"username": inactive.Username, "password": "s3cr3t"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errJSON{Error: "account deactivated"}),
		},
		{
			name:     "login with username",
			body:     marchallObj(t, map[string]string{"username": usr.Username, "password": "s3cr3t"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login with email",
			body:     marchallObj(t, map[string]string{"username": usr.Email, "password": "s3cr3t"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var res struct {
					Success bool   `json:"success"`
					Token   string `json:"token"`
				}
				decodeBody(t, rec, &res)
				if !res.Success || res.Token == "" {
					t.Errorf("unexpected login payload: %s", rec.Body.String())
				}
			}
		})
	}
}

func Test_userApi_me(t *testing.T) {
	usr := createUser(t, "auth_me", nil, 0, nil, "pwd")

	req, rec := newRequest(http.MethodGet, "/v1/users/me")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var me user.User
	decodeBody(t, rec, &me)
	if me.ID != usr.ID || me.Username != usr.Username {
		t.Errorf("unexpected me payload: %s", rec.Body.String())
	}
}

func Test_userApi_register(t *testing.T) {
	admin := createUser(t, "auth_admin", []string{user.RoleAdmin}, 0, nil, "pwd")
	pleb := createUser(t, "auth_pleb", nil, 0, nil, "pwd")

	body := marchallObj(t, map[string]interface{}{
		"name":             "New Student",
		"username":         "auth_newbie",
		"email":            "auth_newbie@test.cd",
		"password":         "S3cr3tPass!",
		"password_confirm": "S3cr3tPass!",
		"roles":            []string{user.RoleStudent},
		"grade":            10,
	})

	// admin-only
	req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, pleb), body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, errJSON{Error: "permission denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var created user.User
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Username != "auth_newbie" || !created.IsStudent() {
		t.Errorf("unexpected register payload: %s", rec.Body.String())
	}

	// duplicate username
	req, rec = newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for duplicate username, got %v; body %s", rec.Code, rec.Body.String())
	}
}
