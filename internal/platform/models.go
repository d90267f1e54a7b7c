package platform

import "fmt"

// Settings is the subset of legacy community settings the assistant
// reads and writes.
type Settings struct {
	Description string
	LinkType    string
}

// Link type values accepted by SetLinkType.
const (
	LinkTypeAny  = "any"
	LinkTypeLink = "link"
	LinkTypeSelf = "self"
)

// Submission is one community post from the new-submission listing.
type Submission struct {
	ID         string
	Fullname   string
	Title      string
	URL        string
	ApprovedBy string
	CreatedUTC float64
}

// Widget is one sidebar widget in the new-style UI.
type Widget struct {
	ID        string
	Kind      string
	ShortName string
	Text      string
}

// WidgetImage is one image entry in an image widget.
type WidgetImage struct {
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	LinkURL string `json:"linkUrl"`
}

// StructuredStyles is the subset of the new-style UI style document the
// assistant cares about.
type StructuredStyles struct {
	PostDownvoteIconActive   string
	PostDownvoteIconInactive string
}

// Rule is one community rule.
type Rule struct {
	ShortName string
}

// BanOptions carries the optional parts of a ban.
type BanOptions struct {
	Reason  string
	Message string
	Note    string
	Days    int // 0 means permanent
}

// SubmitOptions describes a new post.
type SubmitOptions struct {
	Title          string
	Text           string
	Resubmit       bool
	SendReplies    bool
	DiscussionType string // "CHAT" for live-chat threads
}

// APIError is a structured error returned by the platform, surfaced to
// moderators as plain text.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// wire shapes

type wikiResponse struct {
	Data struct {
		ContentMD string `json:"content_md"`
	} `json:"data"`
}

type settingsResponse struct {
	Data struct {
		Description string `json:"description"`
		LinkType    string `json:"link_type"`
	} `json:"data"`
}

type stylesheetResponse struct {
	Data struct {
		Stylesheet string `json:"stylesheet"`
	} `json:"data"`
}

type structuredStylesResponse struct {
	Data struct {
		Style struct {
			PostDownvoteIconActive   string `json:"postDownvoteIconActive"`
			PostDownvoteIconInactive string `json:"postDownvoteIconInactive"`
		} `json:"style"`
	} `json:"data"`
}

type widgetsResponse struct {
	Items map[string]struct {
		ID        string `json:"id"`
		Kind      string `json:"kind"`
		ShortName string `json:"shortName"`
		Text      string `json:"text"`
	} `json:"items"`
	Layout struct {
		Sidebar struct {
			Order []string `json:"order"`
		} `json:"sidebar"`
	} `json:"layout"`
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Name       string  `json:"name"`
				Title      string  `json:"title"`
				URL        string  `json:"url"`
				ApprovedBy string  `json:"approved_by"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rulesResponse struct {
	Rules []struct {
		ShortName string `json:"short_name"`
	} `json:"rules"`
}

type moderatorsResponse struct {
	Data struct {
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	} `json:"data"`
}

type jsonEnvelope struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			URL    string `json:"url"`
			ImgSrc string `json:"img_src"`
		} `json:"data"`
	} `json:"json"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}
