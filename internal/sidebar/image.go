package sidebar

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/cssutil"
	"github.com/gridironmods/sideline/internal/imageutil"
	"github.com/gridironmods/sideline/internal/notify"
	"github.com/gridironmods/sideline/internal/platform"
)

// Legacy stylesheet identity for the sidebar image.
const (
	sidebarAssetName = "sidebar"
	sidebarSelector  = "h1.redditname"
)

// UpdateImage downloads an image, resizes it to sidebar dimensions and
// applies it to both sidebar surfaces, reporting progress through the
// notifier.
func UpdateImage(
	ctx context.Context,
	client *platform.Client,
	log *logrus.Logger,
	community string,
	imageURL string,
	send notify.Notifier,
) error {
	_ = send.Notify(ctx, "Downloading image")
	imagePath, err := imageutil.Download(ctx, imageURL, 0)
	if err != nil {
		return fmt.Errorf("downloading sidebar image: %w", err)
	}
	defer imageutil.Cleanup(imagePath)

	_ = send.Notify(ctx, "Resizing image")
	resizedPath, err := imageutil.Resize(imagePath)
	if err != nil {
		return fmt.Errorf("resizing sidebar image: %w", err)
	}
	defer imageutil.Cleanup(resizedPath)

	_ = send.Notify(ctx, "Updating sidebar widget")
	if err := updateWidgetImage(ctx, client, community, resizedPath); err != nil {
		return err
	}

	_ = send.Notify(ctx, "Updating legacy sidebar")
	if err := updateLegacyImage(ctx, client, community, resizedPath); err != nil {
		return err
	}

	log.WithField("url", imageURL).Info("sidebar image updated")
	_ = send.Notify(ctx, "Sidebar updated")
	return nil
}

func updateWidgetImage(ctx context.Context, client *platform.Client, community, imagePath string) error {
	hostedURL, err := client.UploadWidgetImage(ctx, community, imagePath)
	if err != nil {
		return err
	}
	width, height, err := imageutil.Size(imagePath)
	if err != nil {
		return err
	}

	widgets, err := client.SidebarWidgets(ctx, community)
	if err != nil {
		return err
	}
	for _, widget := range widgets {
		if widget.Kind != "image" {
			continue
		}
		images := []platform.WidgetImage{{URL: hostedURL, Width: width, Height: height}}
		return client.UpdateImageWidget(ctx, community, widget, images)
	}
	return fmt.Errorf("no image widget on the sidebar")
}

func updateLegacyImage(ctx context.Context, client *platform.Client, community, imagePath string) error {
	if _, err := client.UploadStyleAsset(ctx, community, sidebarAssetName, imagePath); err != nil {
		return err
	}

	css, err := client.Stylesheet(ctx, community)
	if err != nil {
		return err
	}
	rules, err := cssutil.Parse(css)
	if err != nil {
		return fmt.Errorf("parsing stylesheet: %w", err)
	}

	rule := cssutil.FindRule(rules, sidebarSelector)
	if rule == nil {
		return fmt.Errorf("stylesheet has no %s rule", sidebarSelector)
	}

	width, height, err := imageutil.Size(imagePath)
	if err != nil {
		return err
	}

	rule.Set("background-image", fmt.Sprintf("url(%%%%%s%%%%)", sidebarAssetName))
	ruleWidth, ruleHeight := legacyDimensions(width, height)
	rule.Set("width", fmt.Sprintf("%dpx", ruleWidth))
	rule.Set("height", fmt.Sprintf("%dpx", ruleHeight))

	updated := cssutil.Serialize(rules)
	if updated == css {
		return nil
	}
	return client.UpdateStylesheet(ctx, community, updated)
}

// legacyDimensions squeezes the image into the legacy sidebar's fixed
// 300-wide column.
func legacyDimensions(width, height int) (int, int) {
	switch {
	case width > height && width < 2*imageutil.BaseWidth:
		return imageutil.BaseWidth, height
	case width > height:
		return imageutil.BaseWidth, height / 2
	default:
		return imageutil.BaseWidth, imageutil.BaseHeight
	}
}
