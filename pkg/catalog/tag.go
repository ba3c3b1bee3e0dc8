package catalog

// TypeTag is the document store type an entity is persisted under.
type TypeTag string

const (
	// TypeProduct is the document type for products.
	TypeProduct TypeTag = "shopify.product"
	// TypeCollection is the document type for collections.
	TypeCollection TypeTag = "shopify.collection"
)

// String implements fmt.Stringer.
func (t TypeTag) String() string {
	return string(t)
}

// Tag maps an entity's discriminator to its document type. It fails with
// errors.ErrMissingDiscriminator when the discriminator is empty and
// errors.ErrUnsupportedDiscriminator for any unrecognised value.
func Tag(e Entity) (TypeTag, error) {
	kind, err := e.Kind()
	if err != nil {
		return "", err
	}
	return TagFor(kind), nil
}

// TagFor returns the document type for a kind.
func TagFor(kind Kind) TypeTag {
	switch kind {
	case KindProduct:
		return TypeProduct
	case KindCollection:
		return TypeCollection
	}
	return ""
}
