package e2etest

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// FindControlForLabel finds the input, select or textarea a label of the form points at. The label matches when
// its text contains labelText.
func FindControlForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	label := form.Find(fmt.Sprintf("label:contains(%q)", labelText)).First()
	if label.Length() == 0 {
		return nil, fmt.Errorf("label not found: %s", labelText)
	}

	var control *goquery.Selection
	if id, ok := label.Attr("for"); ok {
		control = form.Find(fmt.Sprintf("input#%[1]s, select#%[1]s, textarea#%[1]s", id))
	} else {
		control = label.Find("input, select, textarea")
	}
	if control.Length() == 0 {
		return nil, fmt.Errorf("no control for label: %s", labelText)
	}
	return control.First(), nil
}

// CheckValue fails when a browser could not submit value with the control, that is when a select has no such
// option.
func CheckValue(control *goquery.Selection, value string) error {
	if goquery.NodeName(control) != "select" {
		return nil
	}
	found := false
	control.Find("option").Each(func(_ int, o *goquery.Selection) {
		if o.AttrOr("value", o.Text()) == value {
			found = true
		}
	})
	if !found {
		return fmt.Errorf("select %s has no option %q", control.AttrOr("name", ""), value)
	}
	return nil
}

// FindForm finds the single form in the doc that posts to formActionURLPath.
func FindForm(doc *goquery.Document, formActionURLPath string) (*goquery.Selection, error) {
	form := doc.Find(fmt.Sprintf("form[action='%s']", formActionURLPath))
	switch form.Length() {
	case 0:
		return nil, fmt.Errorf("form not found: %s", formActionURLPath)
	case 1:
		return form, nil
	default:
		return nil, fmt.Errorf("%d forms post to %s", form.Length(), formActionURLPath)
	}
}
