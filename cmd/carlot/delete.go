package main

import (
	"fmt"

	"github.com/fwojciec/carlot"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if (c.ID == "") == (c.Site == "") {
		fmt.Fprintf(deps.Stderr, "error: give either a listing ID or --site\n")
		return carlot.Errorf(carlot.EINVALID, "give either a listing ID or --site")
	}

	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return carlot.Errorf(carlot.EINVALID, "use --force to confirm deletion")
	}

	if c.Site != "" {
		n, err := deps.Listings.DeleteListingsBySite(deps.Ctx, c.Site)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Deleted %d listings of %q\n", n, c.Site)
		return nil
	}

	if err := deps.Listings.DeleteListing(deps.Ctx, c.ID); err != nil {
		if carlot.ErrorCode(err) == carlot.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: listing %q not found. Use 'carlot list' to see stored listings.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted listing %q\n", c.ID)
	return nil
}
