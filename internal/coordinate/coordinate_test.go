package coordinate

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	cases := []struct {
		input       string
		expectedID  string
		expectedRaw string
		err         assert.ErrorAssertionFunc
	}{
		{
			input:       "ns.weather",
			expectedID:  "ns.weather",
			expectedRaw: AnyRequirement,
			err:         assert.NoError,
		},
		{
			input:       "ns.weather@1.2.3",
			expectedID:  "ns.weather",
			expectedRaw: "1.2.3",
			err:         assert.NoError,
		},
		{
			input:       "ns.weather@^1.0",
			expectedID:  "ns.weather",
			expectedRaw: "^1.0",
			err:         assert.NoError,
		},
		{
			input:       "ns.weather@~2.1",
			expectedID:  "ns.weather",
			expectedRaw: "~2.1",
			err:         assert.NoError,
		},
		{
			input:       "./local/path/component",
			expectedID:  "./local/path/component",
			expectedRaw: AnyRequirement,
			err:         assert.NoError,
		},
		{
			// split happens on the LAST @, so earlier @ stay in the id
			input:       "user@host/component@1.x",
			expectedID:  "user@host/component",
			expectedRaw: "1.x",
			err:         assert.NoError,
		},
		{
			input: "ns.weather@",
			err:   assert.Error,
		},
		{
			input: "@1.0.0",
			err:   assert.Error,
		},
		{
			input: "ns.weather@not-a-version",
			err:   assert.Error,
		},
		{
			// OCI digest grammar is out of this parser's vocabulary
			input: "ns.weather@sha256:abcdef",
			err:   assert.Error,
		},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			parsed, err := Parse(tc.input)
			tc.err(t, err)
			if err != nil {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, tc.input, parseErr.Input)
				return
			}
			assert.Equal(t, tc.expectedID, parsed.ID)
			assert.Equal(t, tc.expectedRaw, parsed.RequirementRaw)
			require.NotNil(t, parsed.Requirement)
		})
	}
}

func Test_Parse_AnyRequirementMatchesEverything(t *testing.T) {
	parsed, err := Parse("ns.weather")
	require.NoError(t, err)

	for _, v := range []string{"0.0.1", "1.0.0", "99.99.99"} {
		version := semver.MustParse(v)
		assert.True(t, parsed.Requirement.Check(version), "any requirement must match %s", v)
	}
}

func Test_Coordinate_String_RoundTrip(t *testing.T) {
	for _, input := range []string{"ns.weather", "ns.weather@^1.0"} {
		parsed, err := Parse(input)
		require.NoError(t, err)
		assert.Equal(t, input, parsed.String())
	}
}
