// Package myepisodes talks to the MyEpisodes tracker: login, show search, and
// the "mark episode acquired" update.
//
// The site has no API, so success and identifiers are recovered by scanning
// HTML. That scanning lives in the classifiers (ClassifyLogin, ExtractShowID)
// which take raw bodies and are tested against recorded pages in testdata/.
// They are the first place to look when the site layout changes.
package myepisodes
