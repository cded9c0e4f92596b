package catalog

// Channel ids.
const (
	ChannelInstagram  = "instagram"
	ChannelFacebook   = "facebook"
	ChannelTikTok     = "tiktok"
	ChannelNewsletter = "newsletter"
	ChannelPress      = "press"
	ChannelListing    = "listing"
	ChannelPosters    = "posters"
)

var defaultChannels = []Channel{
	{ID: ChannelInstagram, Label: "Instagram"},
	{ID: ChannelFacebook, Label: "Facebook"},
	{ID: ChannelTikTok, Label: "TikTok"},
	{ID: ChannelNewsletter, Label: "Newsletter"},
	{ID: ChannelPress, Label: "Press"},
	{ID: ChannelListing, Label: "Event listing sites"},
	{ID: ChannelPosters, Label: "Posters"},
}

var defaultOperations = []Operation{
	{ID: "listing-submit", ChannelID: ChannelListing, DaysBeforeEvent: 30, DefaultTime: "09:00", Label: "Submit to event listing sites"},
	{ID: "press-release", ChannelID: ChannelPress, DaysBeforeEvent: 21, DefaultTime: "09:00", Label: "Send press release"},
	{ID: "posters-print", ChannelID: ChannelPosters, DaysBeforeEvent: 21, DefaultTime: "12:00", Label: "Print and hang posters"},
	{ID: "newsletter", ChannelID: ChannelNewsletter, DaysBeforeEvent: 14, DefaultTime: "08:00", Label: "Newsletter feature"},
	{ID: "fb-event", ChannelID: ChannelFacebook, DaysBeforeEvent: 14, DefaultTime: "12:00", Label: "Create Facebook event"},
	{ID: "ig-feed", ChannelID: ChannelInstagram, DaysBeforeEvent: 10, DefaultTime: "17:00", Label: "Instagram feed post"},
	{ID: "tiktok-video", ChannelID: ChannelTikTok, DaysBeforeEvent: 5, DefaultTime: "18:00", Label: "TikTok video"},
	{ID: "fb-post", ChannelID: ChannelFacebook, DaysBeforeEvent: 3, DefaultTime: "12:00", Label: "Facebook post"},
	{ID: "ig-story", ChannelID: ChannelInstagram, DaysBeforeEvent: 1, DefaultTime: "16:00", Label: "Instagram story"},
	{ID: "ig-story-day", ChannelID: ChannelInstagram, DaysBeforeEvent: 0, DefaultTime: "14:00", Label: "Instagram story on the day"},
}

var defaultTiers = map[Size][]Step{
	SizeSmall: {
		{ChannelID: ChannelInstagram, Label: "Instagram feed post", OffsetDays: 14, Time: "17:00"},
		{ChannelID: ChannelFacebook, Label: "Facebook post", OffsetDays: 3, Time: "12:00"},
		{ChannelID: ChannelInstagram, Label: "Instagram story", OffsetDays: 1, Time: "16:00"},
	},
	SizeMedium: {
		{ChannelID: ChannelInstagram, Label: "Instagram feed post", OffsetDays: 28, Time: "17:00"},
		{ChannelID: ChannelFacebook, Label: "Facebook event", OffsetDays: 21, Time: "12:00"},
		{ChannelID: ChannelNewsletter, Label: "Newsletter feature", OffsetDays: 14, Time: "08:00"},
		{ChannelID: ChannelInstagram, Label: "Instagram story", OffsetDays: 7, Time: "16:00"},
		{ChannelID: ChannelFacebook, Label: "Facebook post", OffsetDays: 2, Time: "12:00"},
	},
	SizeLarge: {
		{ChannelID: ChannelPress, Label: "Press release", OffsetDays: 42, Time: "09:00"},
		{ChannelID: ChannelListing, Label: "Event listing sites", OffsetDays: 35, Time: "09:00"},
		{ChannelID: ChannelInstagram, Label: "Instagram feed post", OffsetDays: 28, Time: "17:00"},
		{ChannelID: ChannelFacebook, Label: "Facebook event", OffsetDays: 28, Time: "12:00"},
		{ChannelID: ChannelPosters, Label: "Posters", OffsetDays: 21, Time: "12:00"},
		{ChannelID: ChannelNewsletter, Label: "Newsletter feature", OffsetDays: 14, Time: "08:00"},
		{ChannelID: ChannelTikTok, Label: "TikTok video", OffsetDays: 7, Time: "18:00"},
		{ChannelID: ChannelFacebook, Label: "Facebook post", OffsetDays: 3, Time: "12:00"},
		{ChannelID: ChannelInstagram, Label: "Instagram story", OffsetDays: 1, Time: "16:00"},
	},
}

// The same seven tasks go onto every imported event, regardless of size.
var defaultFixedImport = []Step{
	{ChannelID: ChannelListing, Label: "Submit to event calendar site", OffsetDays: 28, Time: "10:00"},
	{ChannelID: ChannelPress, Label: "Submit to press listings", OffsetDays: 28, Time: "10:00"},
	{ChannelID: ChannelInstagram, Label: "Instagram post", OffsetDays: 7, Time: "10:00"},
	{ChannelID: ChannelFacebook, Label: "Facebook event", OffsetDays: 7, Time: "10:00"},
	{ChannelID: ChannelTikTok, Label: "TikTok video", OffsetDays: 5, Time: "10:00"},
	{ChannelID: ChannelFacebook, Label: "Facebook post", OffsetDays: 3, Time: "10:00"},
	{ChannelID: ChannelInstagram, Label: "Instagram story", OffsetDays: 1, Time: "10:00"},
}

// Default returns the built-in catalog.
func Default() Catalog {
	return New(defaultChannels, defaultOperations, defaultTiers, defaultFixedImport)
}
