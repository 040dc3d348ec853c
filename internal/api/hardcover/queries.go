package hardcover

import "fmt"

// EditionData is the edition selection shared by every lookup
const EditionData = `
id
title
isbn_13
asin
users_count
cached_contributors
cached_image
reading_format_id
language {
  code3
}
publisher {
  name
}
release_date`

// BookData is the book selection shared by every lookup
const BookData = `
id
title
slug
rating
description
canonical_id
users_count
book_series(where: {featured: {_eq: true}}) {
  series {
    name
  }
  position
}
cached_tags`

// editionFilter limits editions to physical and ebook formats
const editionFilter = `{reading_format_id: {_in: [1, 4]}}`

// SearchByName runs the Hardcover full text search restricted to books
var SearchByName = `
query SearchByName($query: String!) {
  search(query: $query, query_type: "Book", per_page: 50) {
    results
  }
}`

// FindBookBySlug looks a book up by its slug
var FindBookBySlug = fmt.Sprintf(`
query FindBookBySlug($slug: String) {
  books(where: {slug: {_eq: $slug}}) {
    %s
    editions(
      where: %s
      order_by: {users_count: desc_nulls_last}
    ) {
      %s
    }
  }
}`, BookData, editionFilter, EditionData)

// FindBookByIsbnOrAsin matches editions by ISBN-13, ISBN-10 or ASIN
var FindBookByIsbnOrAsin = fmt.Sprintf(`
query FindBookByIsbnOrAsin($isbn: String, $asin: String) {
  editions(
    where: {_and: [{_or: [{isbn_13: {_eq: $isbn}}, {isbn_10: {_eq: $isbn}}, {asin: {_eq: $asin}}]}, %s]}
    order_by: {users_count: desc_nulls_last}
  ) {
    %s
    book {
      %s
    }
  }
}`, editionFilter, EditionData, BookData)

// FindBookByEdition fetches a single edition by primary key
var FindBookByEdition = fmt.Sprintf(`
query FindBookByEdition($edition: Int!) {
  editions_by_pk(id: $edition) {
    %s
    book {
      %s
    }
  }
}`, EditionData, BookData)

// FindBooksByIds bulk fetches books, most read first
var FindBooksByIds = fmt.Sprintf(`
query FindBooksByIds($ids: [Int!]) {
  books(
    where: {id: {_in: $ids}}
    order_by: {users_read_count: desc_nulls_last}
  ) {
    %s
    editions(
      where: %s
      order_by: {users_count: desc_nulls_last}
    ) {
      %s
    }
  }
}`, BookData, editionFilter, EditionData)
