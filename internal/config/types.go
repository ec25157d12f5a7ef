// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ZipExtractionEnabled unpacks each downloaded artifact into a directory.
	ZipExtractionEnabled ZipExtraction = "enabled"
	// ZipExtractionDisabled stores each downloaded artifact as <id>.zip.
	ZipExtractionDisabled ZipExtraction = "disabled"

	// RuleTypeRegex selects every catalog id matched by a pattern.
	RuleTypeRegex RuleType = "regex"
	// RuleTypeSingle selects exactly one catalog id.
	RuleTypeSingle RuleType = "single"

	// OperationInclude adds matched ids to the working set.
	OperationInclude Operation = "include"
	// OperationExclude removes matched ids from the working set.
	OperationExclude Operation = "exclude"
)

var (
	// ErrInvalidZipExtraction is returned when a ZipExtraction value is not recognized.
	ErrInvalidZipExtraction = errors.New("invalid zip extraction mode")
	// ErrInvalidOperation is returned when an Operation value is not recognized.
	ErrInvalidOperation = errors.New("invalid rule operation")
	// ErrInvalidFilterRule is the sentinel error wrapped by InvalidFilterRuleError.
	ErrInvalidFilterRule = errors.New("invalid filter rule")
	// ErrInvalidCredential is returned when not exactly one credential variant is configured.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ZipExtraction selects how downloaded artifacts are stored.
	ZipExtraction string

	// RuleType discriminates filter rule variants in the configuration file.
	RuleType string

	// Operation is the effect a filter rule has on the working set.
	Operation string

	// Config is the decoded configuration document.
	Config struct {
		// CPISync is the configuration format marker.
		CPISync  string   `json:"cpisync" mapstructure:"cpisync"`
		Tenant   Tenant   `json:"tenant" mapstructure:"tenant"`
		Packages Packages `json:"packages" mapstructure:"packages"`
	}

	// Tenant identifies the remote management API and how to authenticate to it.
	Tenant struct {
		// ManagementHost is a bare host name; requests go to https://<host>/api/v1/.
		ManagementHost string     `json:"management_host" mapstructure:"management_host"`
		Credential     Credential `json:"credential" mapstructure:"credential"`
	}

	// Credential holds exactly one of its variants.
	Credential struct {
		SUser                  *SUser                  `json:"s_user,omitempty" mapstructure:"s_user"`
		OAuthClientCredentials *OAuthClientCredentials `json:"oauth_client_credentials,omitempty" mapstructure:"oauth_client_credentials"`
	}

	// SUser is a basic-auth user.
	SUser struct {
		Username                    string `json:"username" mapstructure:"username"`
		PasswordEnvironmentVariable string `json:"password_environment_variable,omitempty" mapstructure:"password_environment_variable"`
	}

	// OAuthClientCredentials is an OAuth2 client-credentials grant.
	OAuthClientCredentials struct {
		ClientID                        string `json:"client_id" mapstructure:"client_id"`
		TokenEndpointURL                string `json:"token_endpoint_url" mapstructure:"token_endpoint_url"`
		ClientSecretEnvironmentVariable string `json:"client_secret_environment_variable,omitempty" mapstructure:"client_secret_environment_variable"`
	}

	// Packages controls which packages are synced and where they are stored.
	Packages struct {
		ZipExtraction ZipExtraction `json:"zip_extraction" mapstructure:"zip_extraction"`
		// LocalDir is resolved relative to the configuration file's directory.
		LocalDir    string       `json:"local_dir" mapstructure:"local_dir"`
		FilterRules []FilterRule `json:"filter_rules" mapstructure:"filter_rules"`
	}

	// FilterRule is the on-disk form of a selection rule. Pattern is set for
	// regex rules and ID for single rules.
	FilterRule struct {
		Type      RuleType  `json:"type" mapstructure:"type"`
		Pattern   string    `json:"pattern,omitempty" mapstructure:"pattern"`
		ID        string    `json:"id,omitempty" mapstructure:"id"`
		Operation Operation `json:"operation,omitempty" mapstructure:"operation"`
	}

	// InvalidFilterRuleError is returned when a FilterRule is malformed.
	// It wraps ErrInvalidFilterRule for errors.Is() compatibility.
	InvalidFilterRuleError struct {
		Index  int
		Reason string
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the values used for keys the file leaves unset.
func DefaultConfig() *Config {
	return &Config{
		Packages: Packages{
			ZipExtraction: ZipExtractionEnabled,
			LocalDir:      ".",
		},
	}
}

func (z ZipExtraction) String() string { return string(z) }

// IsValid returns whether the ZipExtraction is a known mode.
func (z ZipExtraction) IsValid() (bool, []error) {
	switch z {
	case ZipExtractionEnabled, ZipExtractionDisabled:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w %q (valid: enabled, disabled)", ErrInvalidZipExtraction, string(z))}
	}
}

func (o Operation) String() string { return string(o) }

// IsValid returns whether the Operation is include or exclude. An empty
// Operation is valid and means include.
func (o Operation) IsValid() (bool, []error) {
	switch o {
	case "", OperationInclude, OperationExclude:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w %q (valid: include, exclude)", ErrInvalidOperation, string(o))}
	}
}

// OrDefault returns OperationInclude when o is empty.
func (o Operation) OrDefault() Operation {
	if o == "" {
		return OperationInclude
	}
	return o
}

// IsValid checks that exactly one variant is set and its required fields are present.
func (c Credential) IsValid() (bool, []error) {
	switch {
	case c.SUser != nil && c.OAuthClientCredentials != nil:
		return false, []error{fmt.Errorf("%w: both s_user and oauth_client_credentials are set", ErrInvalidCredential)}
	case c.SUser != nil:
		if strings.TrimSpace(c.SUser.Username) == "" {
			return false, []error{fmt.Errorf("%w: s_user.username is empty", ErrInvalidCredential)}
		}
	case c.OAuthClientCredentials != nil:
		var errs []error
		if strings.TrimSpace(c.OAuthClientCredentials.ClientID) == "" {
			errs = append(errs, fmt.Errorf("%w: oauth_client_credentials.client_id is empty", ErrInvalidCredential))
		}
		if strings.TrimSpace(c.OAuthClientCredentials.TokenEndpointURL) == "" {
			errs = append(errs, fmt.Errorf("%w: oauth_client_credentials.token_endpoint_url is empty", ErrInvalidCredential))
		}
		if len(errs) > 0 {
			return false, errs
		}
	default:
		return false, []error{fmt.Errorf("%w: one of s_user or oauth_client_credentials is required", ErrInvalidCredential)}
	}
	return true, nil
}

// IsValid checks the rule's discriminator, its variant field, and its operation.
// index is only used to label the error.
func (r FilterRule) IsValid(index int) (bool, []error) {
	var errs []error
	switch r.Type {
	case RuleTypeRegex:
		// An empty pattern is legal and matches every id.
	case RuleTypeSingle:
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, &InvalidFilterRuleError{Index: index, Reason: "single rule requires an id"})
		}
	default:
		errs = append(errs, &InvalidFilterRuleError{Index: index, Reason: fmt.Sprintf("unknown type %q (valid: regex, single)", r.Type)})
	}
	if ok, opErrs := r.Operation.IsValid(); !ok {
		for _, err := range opErrs {
			errs = append(errs, &InvalidFilterRuleError{Index: index, Reason: err.Error()})
		}
	}
	return len(errs) == 0, errs
}

// IsValid validates the whole configuration, collecting every field error.
func (c Config) IsValid() (bool, []error) {
	var errs []error

	host := strings.TrimSpace(c.Tenant.ManagementHost)
	if host == "" {
		errs = append(errs, errors.New("tenant.management_host is empty"))
	} else if strings.Contains(host, "/") {
		errs = append(errs, fmt.Errorf("tenant.management_host %q must be a host name without scheme or path", host))
	}
	if ok, credErrs := c.Tenant.Credential.IsValid(); !ok {
		errs = append(errs, credErrs...)
	}
	if ok, zipErrs := c.Packages.ZipExtraction.IsValid(); !ok {
		errs = append(errs, zipErrs...)
	}
	for i, rule := range c.Packages.FilterRules {
		if ok, ruleErrs := rule.IsValid(i); !ok {
			errs = append(errs, ruleErrs...)
		}
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidFilterRuleError.
func (e *InvalidFilterRuleError) Error() string {
	return fmt.Sprintf("packages.filter_rules[%d]: %s", e.Index, e.Reason)
}

// Unwrap returns ErrInvalidFilterRule for errors.Is() compatibility.
func (e *InvalidFilterRuleError) Unwrap() error { return ErrInvalidFilterRule }

// Error lists every field error, one per line.
func (e *InvalidConfigError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid config: %d field error(s)", len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
