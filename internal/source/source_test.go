package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  Kind
		wantRaw   string
		wantLabel string
		wantErr   bool
	}{
		{name: "hashtag", input: "#drupal", wantKind: KindHashtag, wantRaw: "#drupal", wantLabel: "drupal"},
		{name: "bare username", input: "acme", wantKind: KindUsername, wantRaw: "acme", wantLabel: "acme"},
		{name: "at username", input: "@acme", wantKind: KindUsername, wantRaw: "@acme", wantLabel: "acme"},
		{name: "surrounding whitespace", input: "  #go  ", wantKind: KindHashtag, wantRaw: "#go", wantLabel: "go"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "marker only hashtag", input: "#", wantErr: true},
		{name: "marker only username", input: "@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmpty)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantRaw, got.Raw)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}
