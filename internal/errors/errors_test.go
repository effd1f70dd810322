package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAlreadyExists_UsesBadRequest(t *testing.T) {
	err := AlreadyExists("user")
	if err.Code != ErrCodeAlreadyExists {
		t.Errorf("expected ALREADY_EXISTS, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
	if err.Message != MsgUserExists {
		t.Errorf("expected %q, got %q", MsgUserExists, err.Message)
	}
}

func TestAuthErrors_AllUnauthorized(t *testing.T) {
	cases := map[string]*AppError{
		"unauthorized": Unauthorized(MsgBadCredentials),
		"expired":      TokenExpired(),
		"invalid":      InvalidToken(),
		"revoked":      TokenRevoked(),
	}
	for name, err := range cases {
		if err.HTTPStatus != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, err.HTTPStatus)
		}
		if err.Retryable {
			t.Errorf("%s: should not be retryable", name)
		}
	}
	if TokenExpired().Message == InvalidToken().Message {
		t.Error("expired and invalid tokens must carry different reasons")
	}
}

func TestUnauthorized_DefaultMessage(t *testing.T) {
	if got := Unauthorized("").Message; got != "Not authenticated" {
		t.Errorf("unexpected default message %q", got)
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.1:5432: connection refused")
	err := Internal(cause)
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.HTTPStatus)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be unwrappable")
	}

	body, mErr := json.Marshal(err.ToResponse())
	if mErr != nil {
		t.Fatal(mErr)
	}
	if strings.Contains(string(body), "10.0.0.1") {
		t.Errorf("response leaked the cause: %s", body)
	}
}

func TestRetryable(t *testing.T) {
	if !ServiceUnavailable("token cache").Retryable {
		t.Error("SERVICE_UNAVAILABLE should be retryable")
	}
	if !New(ErrCodeServiceUnavailable, "x", 503).Retryable {
		t.Error("New should derive Retryable from the code")
	}
	if New(ErrCodeInternal, "x", 500).Retryable {
		t.Error("INTERNAL_ERROR should not be retryable")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Unauthorized("nope")
	if err.Error() != "UNAUTHORIZED: nope" {
		t.Errorf("unexpected Error(): %q", err.Error())
	}
	err.WithCause(fmt.Errorf("boom"))
	if !strings.Contains(err.Error(), "cause: boom") {
		t.Errorf("expected cause in Error(): %q", err.Error())
	}
}

func TestIsCode(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", TokenExpired())
	if !IsCode(wrapped, ErrCodeTokenExpired) {
		t.Error("expected wrapped TOKEN_EXPIRED to match")
	}
	if IsCode(wrapped, ErrCodeInvalidToken) {
		t.Error("did not expect INVALID_TOKEN to match")
	}
	if IsCode(fmt.Errorf("plain"), ErrCodeInternal) {
		t.Error("plain errors never match")
	}
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", NotFound("user", "42")))
	if !ok {
		t.Fatal("expected AppError")
	}
	if appErr.Details["id"] != "42" {
		t.Errorf("expected id detail, got %v", appErr.Details)
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain error is not an AppError")
	}
}

func TestWithDetail(t *testing.T) {
	err := Validation("bad").WithDetail("field", "email")
	resp := err.ToResponse()
	if resp.Error.Details["field"] != "email" {
		t.Errorf("expected detail in response, got %v", resp.Error.Details)
	}
	if resp.Error.Code != ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", resp.Error.Code)
	}
}

func TestCanceled_NotInternal(t *testing.T) {
	err := Canceled(fmt.Errorf("context canceled"))
	if err.Code == ErrCodeInternal {
		t.Error("canceled requests must not be reported as internal errors")
	}
	if err.HTTPStatus != StatusClientClosedRequest {
		t.Errorf("expected %d, got %d", StatusClientClosedRequest, err.HTTPStatus)
	}
}
