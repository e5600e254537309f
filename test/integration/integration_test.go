package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/require"
)

// TagsEnv narrows the run to scenarios matching a godog tag expression,
// for example GODOG_TAGS="~@slow".
const TagsEnv = "GODOG_TAGS"

// TestFeatures runs features/*.feature against one Postgres container and
// one CloudLaunch server shared by every scenario. The seeding steps are
// idempotent, so every Background can run them again.
func TestFeatures(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("set INTEGRATION_TEST=1 to run the feature suite")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	tc, err := NewTestContext(ctx)
	require.NoError(t, err, "start postgres and server")
	t.Cleanup(func() { tc.Close(context.Background()) })

	suite := godog.TestSuite{
		Name: "cloudlaunch",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			NewStepsContext(tc).RegisterSteps(sc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Tags:     os.Getenv(TagsEnv),
			Strict:   true,
			TestingT: t,
		},
	}

	require.Zero(t, suite.Run(), "feature suite failed")
}
