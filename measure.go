package mindmap2pdf

import (
	"context"
	"fmt"
)

// findDiagramJS defines the in-page lookup shared by the measure and normalize
// scripts. contentOf(c) returns the content group of container c, preferring
// a direct child. find returns the first container that has a content group,
// so a decorative <svg> earlier in the page is skipped, and the content is
// always taken from inside that container.
const findDiagramJS = `
	const contentOf = (c, contentSel) =>
		Array.from(c.children).find((el) => el.matches(contentSel)) || c.querySelector(contentSel);
	const find = (containerSel, contentSel) => {
		for (const container of document.querySelectorAll(containerSel)) {
			const content = contentOf(container, contentSel);
			if (content) return {container, content};
		}
		return {container: document.querySelector(containerSel), content: null};
	};
`

// measureScript reports the bounding box of the content group in the local
// coordinates of the container. It takes the container and content selectors.
const measureScript = `(containerSel, contentSel) => {` + findDiagramJS + `
	const none = {found: false, box: {x: 0, y: 0, width: 0, height: 0}};
	const {container, content} = find(containerSel, contentSel);
	if (!container || !content || typeof content.getBBox !== 'function') return none;
	const b = content.getBBox();
	return {found: true, box: {x: b.x, y: b.y, width: b.width, height: b.height}};
}`

// measure extracts the content geometry. Missing content is reported with
// Found=false, not as an error.
func measure(ctx context.Context, t tab, sel Selectors) (Measurement, error) {
	var m Measurement
	if err := t.Evaluate(ctx, measureScript, &m, sel.Container, sel.Content); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Measurement{}, ctxErr
		}
		return Measurement{}, fmt.Errorf("%w: %v", ErrMeasure, err)
	}
	m.Box = m.Box.sanitize()
	return m, nil
}
