// Lock-to-image (`l2i`) is a tool for building reproducible container images
// from locked Python projects. `l2i` produces ready-to-run images by copying
// a source tree with its dependency manifest and lock file onto a base image
// and installing the dependencies strictly from the lock, so the image is
// ready to use with `docker run`.
package locktoimage
