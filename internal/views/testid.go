package views

import "fmt"

// Test identifiers rendered as data-testid. Browser tests and the e2e
// suite bind to these values, so they never change.
const (
	TestIDIconWindow       = "icon-window"
	TestIDIconMail         = "icon-mail"
	TestIDLayoutDisconnect = "layout-disconnect"
	TestIDBtnNewBill       = "btn-new-bill"
	TestIDTbody            = "tbody"
	TestIDIconEye          = "icon-eye"
	TestIDModal            = "modaleFile"
	TestIDFormNewBill      = "form-new-bill"
	TestIDExpenseType      = "expense-type"
	TestIDExpenseName      = "expense-name"
	TestIDDatepicker       = "datepicker"
	TestIDAmount           = "amount"
	TestIDVAT              = "vat"
	TestIDPct              = "pct"
	TestIDCommentary       = "commentary"
	TestIDFile             = "file"
	TestIDErrorMessage     = "error-message"

	TestIDFormEmployee        = "form-employee"
	TestIDEmployeeEmailInput  = "employee-email-input"
	TestIDEmployeeLoginButton = "employee-login-button"
	TestIDFormAdmin           = "form-admin"
	TestIDAdminEmailInput     = "admin-email-input"
	TestIDAdminLoginButton    = "admin-login-button"

	TestIDStatusGroup = "status-group"
	TestIDBtnAccept   = "btn-accept-bill"
	TestIDBtnRefuse   = "btn-refuse-bill"
)

var testIDs = map[string]bool{
	TestIDIconWindow:          true,
	TestIDIconMail:            true,
	TestIDLayoutDisconnect:    true,
	TestIDBtnNewBill:          true,
	TestIDTbody:               true,
	TestIDIconEye:             true,
	TestIDModal:               true,
	TestIDFormNewBill:         true,
	TestIDExpenseType:         true,
	TestIDExpenseName:         true,
	TestIDDatepicker:          true,
	TestIDAmount:              true,
	TestIDVAT:                 true,
	TestIDPct:                 true,
	TestIDCommentary:          true,
	TestIDFile:                true,
	TestIDErrorMessage:        true,
	TestIDFormEmployee:        true,
	TestIDEmployeeEmailInput:  true,
	TestIDEmployeeLoginButton: true,
	TestIDFormAdmin:           true,
	TestIDAdminEmailInput:     true,
	TestIDAdminLoginButton:    true,
	TestIDStatusGroup:         true,
	TestIDBtnAccept:           true,
	TestIDBtnRefuse:           true,
}

// testid is the template function guarding the identifier set: a template
// using an unregistered id fails to execute.
func testid(id string) (string, error) {
	if !testIDs[id] {
		return "", fmt.Errorf("unknown test id %q", id)
	}
	return id, nil
}
