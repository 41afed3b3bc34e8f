package fetcher

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// newXMLDecoder returns a decoder that transcodes non-UTF-8 documents using
// their declared charset.
func newXMLDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return d
}

// nextElement advances d to the next start element with the given local
// name. It returns io.EOF when the document ends.
func nextElement(ctx context.Context, d *xml.Decoder, elementName string) (xml.StartElement, error) {
	for {
		if err := ctx.Err(); err != nil {
			return xml.StartElement{}, eris.Wrap(err, "xml: context cancelled")
		}
		tok, err := d.Token()
		if err == io.EOF {
			return xml.StartElement{}, io.EOF
		}
		if err != nil {
			return xml.StartElement{}, eris.Wrap(err, "xml: read token")
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == elementName {
			return se, nil
		}
	}
}

// StreamXML decodes every element with the given local name into T and
// sends it on the returned channel. Both channels are closed when the
// document ends, decoding fails or ctx is done.
func StreamXML[T any](ctx context.Context, r io.Reader, elementName string) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		d := newXMLDecoder(r)
		for {
			se, err := nextElement(ctx, d, elementName)
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- err
				return
			}

			var item T
			if err := d.DecodeElement(&item, &se); err != nil {
				errCh <- eris.Wrap(err, "xml: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}
		}
	}()

	return outCh, errCh
}

// DecodeFirstXML returns the first element named elementName, and whether
// one was found.
func DecodeFirstXML[T any](ctx context.Context, r io.Reader, elementName string) (T, bool, error) {
	var item T
	d := newXMLDecoder(r)
	se, err := nextElement(ctx, d, elementName)
	if err == io.EOF {
		return item, false, nil
	}
	if err != nil {
		return item, false, err
	}
	if err := d.DecodeElement(&item, &se); err != nil {
		return item, false, eris.Wrap(err, "xml: decode element")
	}
	return item, true, nil
}
