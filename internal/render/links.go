package render

import "net/url"

const siteURL = "https://twitter.com"

// ProfileURL links to a user's profile.
func ProfileURL(screenName string) string {
	return siteURL + "/" + screenName
}

// HashtagURL links to a hashtag's page.
func HashtagURL(tag string) string {
	return siteURL + "/hashtag/" + tag
}

// SearchURL links to the search results for a raw query such as "#drupal".
func SearchURL(query string) string {
	return siteURL + "/search?q=" + url.QueryEscape(query)
}

// StatusURL links to a single tweet.
func StatusURL(screenName string, id string) string {
	return siteURL + "/" + screenName + "/status/" + id
}
