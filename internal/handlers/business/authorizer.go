package business

import (
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"vaultcontrol/internal/models"
	"vaultcontrol/internal/vault"
	dbconfig "vaultcontrol/pkg/config"
)

// Caller identifies whoever invoked an operation: depositors by
// address, keepers by API key.
type Caller struct {
	Address string
	APIKey  string
}

// Authorizer answers the two authorization questions the runtime asks.
// Reports need a keeper; depositor operations on allowlisted vaults
// need a listed address.
type Authorizer interface {
	AuthorizeKeeper(caller Caller) error
	AuthorizeDepositor(address string) error
}

// AccessKeyAuthorizer checks callers against the access_key table.
// KEEPER_API_KEY acts as a bootstrap keeper credential so reports can
// run before any key rows exist.
type AccessKeyAuthorizer struct{}

func (AccessKeyAuthorizer) AuthorizeKeeper(caller Caller) error {
	if caller.APIKey == "" {
		return vault.ErrUnauthorized
	}
	if bootstrap := os.Getenv("KEEPER_API_KEY"); bootstrap != "" && caller.APIKey == bootstrap {
		return nil
	}

	var key models.AccessKey
	err := dbconfig.DB.Where("role = ? AND api_key = ? AND enabled = ?",
		models.RoleKeeper, caller.APIKey, true).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return vault.ErrUnauthorized
		}
		return err
	}
	return nil
}

func (AccessKeyAuthorizer) AuthorizeDepositor(address string) error {
	if address == "" {
		return fmt.Errorf("%w: depositor address is empty", vault.ErrAuthorization)
	}

	var key models.AccessKey
	err := dbconfig.DB.Where("role = ? AND address = ? AND enabled = ?",
		models.RoleDepositor, address, true).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: address %s is not allowlisted", vault.ErrAuthorization, address)
		}
		return err
	}
	return nil
}
