package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionalCheck(t *testing.T) {
	tests := []struct {
		name    string
		cond    *Conditional
		current string
		wantErr bool
	}{
		{"nil always passes", nil, "abc", false},
		{"empty always passes", &Conditional{}, "abc", false},

		{"if-none-match star, absent", &Conditional{IfNoneMatch: "*"}, "", false},
		{"if-none-match star, present", &Conditional{IfNoneMatch: "*"}, "abc", true},
		{"if-none-match etag, differs", &Conditional{IfNoneMatch: "old"}, "abc", false},
		{"if-none-match etag, matches", &Conditional{IfNoneMatch: "abc"}, "abc", true},
		{"if-none-match etag, absent", &Conditional{IfNoneMatch: "abc"}, "", false},

		{"if-match etag, matches", &Conditional{IfMatch: "abc"}, "abc", false},
		{"if-match etag, differs", &Conditional{IfMatch: "old"}, "abc", true},
		{"if-match etag, absent", &Conditional{IfMatch: "abc"}, "", true},
		{"if-match star, present", &Conditional{IfMatch: "*"}, "abc", false},
		{"if-match star, absent", &Conditional{IfMatch: "*"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Check(tt.current)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPreconditionFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
