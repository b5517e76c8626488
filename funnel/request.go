/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"net/http"

	"github.com/rs/xid"
)

// StatusPending is the status of a request that has not completed yet.
// It never collides with an HTTP status code.
const StatusPending = 0

// User is an authenticated principal.
type User struct {
	ID       string
	Profiles []string
}

// Token is an authentication token attached to a request.
type Token struct {
	ID        string
	UserID    string
	JWT       string
	Refreshed bool
}

// RequestInput contains the payload of a request.
type RequestInput struct {
	Controller string
	Action     string
	// ID is an optional identifier supplied by the caller. It is not used for admission.
	ID   string
	Args map[string]interface{}
	Body interface{}
}

// RequestContext describes where a request comes from and on whose behalf it is executed.
type RequestContext struct {
	ConnectionID string
	Protocol     string
	// User is nil for anonymous requests.
	User *User
	// Token is nil when the request is not authenticated.
	Token *Token
}

// Request is a unit of work passed through the Funnel.
// It is mutated only by the Funnel and the Executor and must not be reused after its callback is invoked.
type Request struct {
	InternalID string
	Input      RequestInput
	Context    RequestContext

	Status int
	Error  error
	Result interface{}
}

// NewRequest creates a new request with a process-unique internal id.
func NewRequest(controller, action string) *Request {
	return &Request{
		InternalID: xid.New().String(),
		Input:      RequestInput{Controller: controller, Action: action},
	}
}

// SetError sets the request error and the status derived from it.
func (r *Request) SetError(err error) {
	r.Error = err
	r.Status = StatusOf(err)
}

// SetResult sets the request result. Zero status means 200 OK.
func (r *Request) SetResult(result interface{}, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	r.Result = result
	r.Status = status
}

// CallerKey returns the identity of the caller: the user id for authenticated requests,
// the connection id otherwise.
func (r *Request) CallerKey() string {
	if r.Context.User != nil && r.Context.User.ID != "" {
		return r.Context.User.ID
	}
	return r.Context.ConnectionID
}

func (r *Request) validate() error {
	if r.Input.Controller == "" {
		return newMissingArgumentError("controller")
	}
	if r.Input.Action == "" {
		return newMissingArgumentError("action")
	}
	return nil
}
