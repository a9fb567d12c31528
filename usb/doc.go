// Package usb implements the badge's USB CDC-ACM serial port on a polled
// device controller.
//
// A [Builder] fixes the device identity and [Builder.Build] installs the
// process-wide [Serial]. From then on the application either calls
// [Serial.Poll] at least every 10 ms, or enables interrupt mode and lets
// [HandleInterrupt] poll from the USB vector:
//
//	serial, err := usb.NewBuilder(p.USB).Product("LED-Controller").Build()
//	if err != nil {
//	    return err
//	}
//	for {
//	    if serial.Poll() {
//	        n, err := serial.Read(buf)
//	        ...
//	    }
//	}
//
// Read and Write never block. They return pkg.ErrWouldBlock when no data is
// buffered or the transmit buffer is full.
//
// The device exposes one configuration with a CDC communication interface
// (notification endpoint 0x81) and a CDC data interface (bulk endpoints
// 0x02 OUT and 0x82 IN).
package usb
