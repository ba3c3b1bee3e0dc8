package errors_test

import (
	"fmt"

	"github.com/agentstation/shelfsync/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewNotFoundError("product", "summer-tee")

	if errors.IsNotFound(err) {
		fmt.Println("Resource not found")
	}

	// Output: Resource not found
}

// Example_remoteFetchError demonstrates classifying remote API failures.
func Example_remoteFetchError() {
	err := &errors.RemoteFetchError{
		Operation:  "page",
		Kind:       "product",
		StatusCode: 429,
		Message:    "Throttled",
	}

	switch {
	case errors.IsRateLimited(err):
		fmt.Println("Rate limited - retry later")
	case errors.IsRemoteFetch(err):
		fmt.Println("Remote API failed")
	}

	// Output: Rate limited - retry later
}

// Example_discriminatorError demonstrates telling missing and unknown kinds apart.
func Example_discriminatorError() {
	missing := &errors.DiscriminatorError{SourceID: "gid://shopify/Product/1"}
	unknown := &errors.DiscriminatorError{Value: "Metaobject"}

	fmt.Println(errors.Is(missing, errors.ErrMissingDiscriminator))
	fmt.Println(errors.Is(unknown, errors.ErrUnsupportedDiscriminator))

	// Output:
	// true
	// true
}
