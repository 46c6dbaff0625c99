package shopify

// GraphQL documents for the Admin API. Metafield aliases mirror the
// upstream convention: imagesUrl is the authoritative URL list, assetImages
// the resolved file-reference list.

const queryGetProduct = `
query GetProduct($id: ID!) {
  product(id: $id) {
    id
    title
    onlineStorePreviewUrl
    mediaCount { count }
    variantsCount { count }
    media(query: "media_type:IMAGE", sortKey: POSITION, first: 250) {
      nodes {
        ... on MediaImage {
          id
          image { url }
        }
      }
    }
    variants(first: 250) {
      nodes {
        id
        title
        imagesUrl: metafield(namespace: "custom", key: "variant_images_url") {
          jsonValue
        }
        assetImages: metafield(namespace: "custom", key: "variant_images") {
          jsonValue
          references(first: 250) {
            nodes {
              ... on MediaImage {
                id
                image { url }
              }
            }
          }
        }
      }
    }
  }
}`

const queryListProducts = `
query GetAllProducts($first: Int, $after: String) {
  productsCount { count }
  products(first: $first, after: $after) {
    edges {
      cursor
      node {
        id
        title
        onlineStorePreviewUrl
        mediaCount { count }
        variantsCount { count }
        media(query: "media_type:IMAGE", sortKey: POSITION, first: 250) {
          nodes {
            ... on MediaImage {
              id
              image { url }
            }
          }
        }
        variants(first: 250) {
          nodes {
            id
            title
            imagesUrl: metafield(namespace: "custom", key: "variant_images_url") {
              jsonValue
            }
            assetImages: metafield(namespace: "custom", key: "variant_images") {
              jsonValue
            }
          }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const mutationFileCreate = `
mutation CreateFiles($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files {
      id
      alt
      fileStatus
    }
    userErrors { field message code }
  }
}`

const mutationMetafieldsSet = `
mutation SetMetafields($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id key namespace }
    userErrors { field message code }
  }
}`
