package options

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// IDOptions
type IDOptions struct {
	ShowID bool
}

func AddShowIDArgs(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().BoolVar(&o.ShowID, "show-id", true,
		"Show ids in the output.")
}

// ParseID reads a numeric event or goal id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("%q is not a valid id", s)
	}
	return id, nil
}
