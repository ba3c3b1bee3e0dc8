package shopify

import (
	"github.com/agentstation/shelfsync/pkg/catalog"
)

const productFields = `
  __typename
  id
  handle
  title
  description
  vendor
  productType
  status
  tags
  createdAt
  updatedAt
  featuredImage { url altText }
  priceRangeV2 {
    minVariantPrice { amount currencyCode }
    maxVariantPrice { amount currencyCode }
  }
`

const collectionFields = `
  __typename
  id
  handle
  title
  description
  sortOrder
  updatedAt
  image { url altText }
  productsCount { count }
`

const productsQuery = `query Products($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    nodes {` + productFields + `}
    pageInfo { hasNextPage endCursor }
  }
}`

const collectionsQuery = `query Collections($first: Int!, $after: String) {
  collections(first: $first, after: $after) {
    nodes {` + collectionFields + `}
    pageInfo { hasNextPage endCursor }
  }
}`

const productByHandleQuery = `query ProductByHandle($handle: String!) {
  productByIdentifier(identifier: {handle: $handle}) {` + productFields + `}
}`

const collectionByHandleQuery = `query CollectionByHandle($handle: String!) {
  collectionByIdentifier(identifier: {handle: $handle}) {` + collectionFields + `}
}`

// query pairs a GraphQL document with the top-level field it selects.
type query struct {
	document string
	field    string
}

func pageQuery(kind catalog.Kind) (query, bool) {
	switch kind {
	case catalog.KindProduct:
		return query{document: productsQuery, field: "products"}, true
	case catalog.KindCollection:
		return query{document: collectionsQuery, field: "collections"}, true
	}
	return query{}, false
}

func handleQuery(kind catalog.Kind) (query, bool) {
	switch kind {
	case catalog.KindProduct:
		return query{document: productByHandleQuery, field: "productByIdentifier"}, true
	case catalog.KindCollection:
		return query{document: collectionByHandleQuery, field: "collectionByIdentifier"}, true
	}
	return query{}, false
}
