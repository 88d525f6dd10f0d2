package mindmap2pdf

import (
	"context"
	"fmt"
)

// normalizer rewrites the page so that the exportable area equals the canvas.
type normalizer interface {
	normalize(ctx context.Context, t tab, job Job, m Measurement) (Canvas, error)
}

// normalizerFor returns the implementation of a strategy.
func normalizerFor(s Strategy) normalizer {
	switch s {
	case StrategyRetransform:
		return retransformNormalizer{}
	case StrategyViewport:
		return viewportNormalizer{}
	default:
		return cloneNormalizer{}
	}
}

// retransformScript moves the content group so the box origin lands at
// (padding, padding), drops the container viewBox and sizes the container
// to the canvas. Args: container, content, tx, ty, width, height.
const retransformScript = `(containerSel, contentSel, tx, ty, width, height) => {` + findDiagramJS + `
	const {container, content} = find(containerSel, contentSel);
	if (!container || !content) return false;
	content.setAttribute('transform', 'translate(' + tx + ', ' + ty + ') scale(1)');
	container.removeAttribute('viewBox');
	container.setAttribute('width', String(width));
	container.setAttribute('height', String(height));
	container.style.width = width + 'px';
	container.style.height = height + 'px';
	container.style.display = 'block';
	document.body.style.margin = '0';
	document.body.style.padding = '0';
	return true;
}`

// cloneScript replaces the body with an inert deep clone of the container,
// framed by the canvas viewBox. The live container is detached with the old
// body content, so anything still bound to it cannot reach the export.
// The clone's content group loses its pan/zoom transform: the measured box
// is in the group's local coordinates, which the viewBox then frames.
// Args: container, content, viewBox, width, height.
const cloneScript = `(containerSel, contentSel, viewBox, width, height) => {` + findDiagramJS + `
	const {container, content} = find(containerSel, contentSel);
	if (!container || !content) return false;
	const clone = container.cloneNode(true);
	clone.setAttribute('viewBox', viewBox);
	clone.setAttribute('width', String(width));
	clone.setAttribute('height', String(height));
	clone.setAttribute('preserveAspectRatio', 'xMinYMin meet');
	clone.style.width = width + 'px';
	clone.style.height = height + 'px';
	clone.style.display = 'block';
	document.body.replaceChildren(clone);
	document.body.style.margin = '0';
	document.body.style.padding = '0';
	const cloned = contentOf(clone, contentSel);
	if (cloned) cloned.removeAttribute('transform');
	return true;
}`

type retransformNormalizer struct{}

func (retransformNormalizer) normalize(ctx context.Context, t tab, job Job, m Measurement) (Canvas, error) {
	canvas := NewCanvas(m, job.Padding, job.Fallback)
	if canvas.Fallback {
		return canvas, nil
	}

	tx, ty := contentOffset(m, job.Padding)
	if err := runNormalizeScript(ctx, t, retransformScript,
		job.Selectors.Container, job.Selectors.Content, tx, ty, canvas.Width, canvas.Height); err != nil {
		return Canvas{}, err
	}
	return canvas, nil
}

type cloneNormalizer struct{}

func (cloneNormalizer) normalize(ctx context.Context, t tab, job Job, m Measurement) (Canvas, error) {
	canvas := NewCanvas(m, job.Padding, job.Fallback)
	if canvas.Fallback {
		return canvas, nil
	}

	if err := runNormalizeScript(ctx, t, cloneScript,
		job.Selectors.Container, job.Selectors.Content, canvas.ViewBox(), canvas.Width, canvas.Height); err != nil {
		return Canvas{}, err
	}
	return canvas, nil
}

// viewportNormalizer resizes the viewport to the canvas and waits for the
// layout library to refit. It applies to fallback canvases too.
type viewportNormalizer struct{}

func (viewportNormalizer) normalize(ctx context.Context, t tab, job Job, m Measurement) (Canvas, error) {
	canvas := NewCanvas(m, job.Padding, job.Fallback)

	if err := t.SetViewport(ctx, canvas.Width, canvas.Height, job.Viewport.Scale); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Canvas{}, ctxErr
		}
		return Canvas{}, fmt.Errorf("%w: resizing viewport: %v", ErrNormalize, err)
	}
	if err := sleepContext(ctx, job.RefitDelay); err != nil {
		return Canvas{}, err
	}
	return canvas, nil
}

// runNormalizeScript evaluates a DOM rewrite that reports whether it found
// its target elements.
func runNormalizeScript(ctx context.Context, t tab, script string, args ...any) error {
	var ok bool
	if err := t.Evaluate(ctx, script, &ok, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrNormalize, err)
	}
	if !ok {
		return fmt.Errorf("%w: diagram container disappeared before normalization", ErrNormalize)
	}
	return nil
}

// applyTheme injects the theme stylesheet. Styles attached to the document
// survive the clone strategy since the head is left in place.
func applyTheme(ctx context.Context, t tab, css string) error {
	if css == "" {
		return nil
	}
	if err := t.AddStyle(ctx, css); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: injecting theme: %v", ErrNormalize, err)
	}
	return nil
}
