// Package fixtures provides shared test data constants for the Haventide
// Core test suite.
//
// Using common constants for tenant and identity values prevents magic
// strings in tests and ensures consistency across packages.
package fixtures

// Standard service identity values used across lifecycle and integration
// tests.
const (
	// ServiceName is the default service name for unit tests.
	ServiceName = "auth-edge"

	// ServiceVersion is the default service version for unit tests.
	ServiceVersion = "1.0.0"

	// AltServiceName is an alternative service name for tests requiring
	// two services.
	AltServiceName = "scheduling"

	// AltServiceVersion is an alternative service version string.
	AltServiceVersion = "2.0.0"
)

// Standard tenant values used across auth and persistence tests. The two
// clinic tenants exercise cross-tenant isolation checks.
const (
	// TenantNorth is the primary tenant ID for unit tests.
	TenantNorth = "clinic-north"

	// TenantSouth is the secondary tenant ID for cross-tenant tests.
	TenantSouth = "clinic-south"
)

// Standard identity values used in auth tests.
const (
	// TestSubject is the default subject claim for test tokens.
	TestSubject = "user-abc-123"

	// TestIssuer is the default issuer for test tokens.
	TestIssuer = "https://idp.haventide.test"

	// TestAudience is the default audience for test tokens.
	TestAudience = "haventide-api"
)

// Standard configuration values used in config loader tests.
const (
	// TestEnvPrefix is the default environment variable prefix for config
	// tests.
	TestEnvPrefix = "TESTAPP"

	// TestConfigYAML is a minimal valid YAML configuration for tests.
	TestConfigYAML = `host: localhost
port: 8080
database: testdb
`

	// TestConfigJSON is a minimal valid JSON configuration for tests.
	TestConfigJSON = `{
  "host": "localhost",
  "port": 8080,
  "database": "testdb"
}`
)

// Standard database configuration values used in postgres client tests.
const (
	// TestDBHost is the default database host for test configurations.
	TestDBHost = "localhost"

	// TestDBPort is the default database port for test configurations.
	TestDBPort = 5432

	// TestDBName is the default database name for test configurations.
	TestDBName = "testdb"

	// TestDBUser is the default database user for test configurations.
	TestDBUser = "testuser"

	// TestDBPassword is the default database password for test
	// configurations. This is a deliberately weak value suitable only for
	// unit tests.
	TestDBPassword = "testpass"
)
